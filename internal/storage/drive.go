// Package storage holds the external document storage client used for
// project proposal files.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
)

// Uploader stores and removes proposal documents.
type Uploader interface {
	Upload(ctx context.Context, data []byte, fileName, mimeType string) (*models.ProposalDocument, error)
	Delete(ctx context.Context, fileID string) error
}

// DriveClient talks to the Google Drive v3 REST API.
type DriveClient struct {
	cfg    *config.DriveConfig
	client *http.Client
}

// NewDriveClient creates a new Drive client
func NewDriveClient(cfg *config.DriveConfig) *DriveClient {
	return &DriveClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type driveFile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	WebViewLink    string `json:"webViewLink"`
	WebContentLink string `json:"webContentLink"`
}

// Upload stores the document in the configured folder and returns the
// stored file's reference. The file is shared link-readable so approved
// requesters can open the view link without a Google account grant.
func (c *DriveClient) Upload(ctx context.Context, data []byte, fileName, mimeType string) (*models.ProposalDocument, error) {
	file, err := c.uploadMultipart(ctx, data, fileName, mimeType)
	if err != nil {
		return nil, err
	}

	if err := c.shareLinkReadable(ctx, file.ID); err != nil {
		return nil, err
	}

	return &models.ProposalDocument{
		FileName:     fileName,
		DriveFileID:  file.ID,
		ViewLink:     file.WebViewLink,
		DownloadLink: file.WebContentLink,
	}, nil
}

func (c *DriveClient) uploadMultipart(ctx context.Context, data []byte, fileName, mimeType string) (*driveFile, error) {
	meta := map[string]interface{}{"name": fileName}
	if c.cfg.FolderID != "" {
		meta["parents"] = []string{c.cfg.FolderID}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal file metadata: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata part: %w", err)
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return nil, fmt.Errorf("failed to write metadata part: %w", err)
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Type", mimeType)
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := filePart.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := c.cfg.UploadURL + "/files?uploadType=multipart&fields=id,name,webViewLink,webContentLink"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	var file driveFile
	if err := c.do(req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func (c *DriveClient) shareLinkReadable(ctx context.Context, fileID string) error {
	perm, err := json.Marshal(map[string]string{"role": "reader", "type": "anyone"})
	if err != nil {
		return fmt.Errorf("failed to marshal permission: %w", err)
	}

	url := fmt.Sprintf("%s/files/%s/permissions", c.cfg.BaseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(perm))
	if err != nil {
		return fmt.Errorf("failed to build permission request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

// Delete removes a stored document. A missing file is not an error, the
// desired end state is already reached.
func (c *DriveClient) Delete(ctx context.Context, fileID string) error {
	url := fmt.Sprintf("%s/files/%s", c.cfg.BaseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	err = c.do(req, nil)
	if err != nil && errs.KindOf(err) == errs.KindNotFound {
		return nil
	}
	return err
}

func (c *DriveClient) do(req *http.Request, out interface{}) error {
	res, err := c.client.Do(req)
	if err != nil {
		return errs.Upstream("document storage unreachable", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode == http.StatusNotFound {
		return errs.NotFound("document not found")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return errs.Upstream(
			"document storage request failed",
			fmt.Errorf("status %d: %s", res.StatusCode, string(payload)),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errs.Upstream("failed to decode document storage response", err)
	}
	return nil
}
