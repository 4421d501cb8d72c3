package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Theme is the closed set of capstone project themes.
type Theme string

const (
	ThemeHealth         Theme = "Kesehatan"
	ThemeWasteHandling  Theme = "Pengelolaan Sampah"
	ThemeSmartCity      Theme = "Smart City"
	ThemeGreenTransport Theme = "Transportasi Ramah Lingkungan"
)

// ValidTheme reports whether t is one of the known themes.
func ValidTheme(t Theme) bool {
	switch t {
	case ThemeHealth, ThemeWasteHandling, ThemeSmartCity, ThemeGreenTransport:
		return true
	}
	return false
}

// ProjectStatus is the lifecycle state of a published project.
type ProjectStatus string

const (
	StatusOpen       ProjectStatus = "Open"
	StatusInProgress ProjectStatus = "In Progress"
	StatusClosed     ProjectStatus = "Closed"
)

// ValidProjectStatus reports whether s is a known lifecycle state.
func ValidProjectStatus(s ProjectStatus) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

// RequestStatus is the state of a continuation request. Rejection and
// cancellation remove the record, so only these three states are persisted.
type RequestStatus string

const (
	RequestPending RequestStatus = "pending"
	// RequestApproved marks the single request per requester that won.
	RequestApproved RequestStatus = "approved"
	// RequestSuperseded marks a request flattened because the same requester
	// was approved on another project.
	RequestSuperseded RequestStatus = "superseded"
)

// Member is one student inside a group's roster.
type Member struct {
	Name         string `bson:"name" json:"name" validate:"required"`
	NIM          string `bson:"nim" json:"nim" validate:"required"`
	Major        string `bson:"major" json:"major" validate:"required"`
	LinkedinURL  string `bson:"linkedinUrl,omitempty" json:"linkedinUrl,omitempty"`
	PortfolioURL string `bson:"portfolioUrl,omitempty" json:"portfolioUrl,omitempty"`
	PhotoURL     string `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
}

// User represents a student group account.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupName    string             `bson:"groupName" json:"groupName"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password,omitempty" json:"-"`
	GoogleID     string             `bson:"googleId,omitempty" json:"-"`
	Department   string             `bson:"department" json:"department"`
	Year         int                `bson:"year" json:"year"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	TeamPhotoURL string             `bson:"teamPhotoUrl,omitempty" json:"teamPhotoUrl,omitempty"`
	Members      []Member           `bson:"members" json:"members"`
	// Incomplete marks accounts created through OAuth linking that still
	// miss required profile fields.
	Incomplete bool      `bson:"incomplete,omitempty" json:"incomplete,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ProposalDocument is the restricted-access proposal reference stored on a
// project. The link pair is opaque data returned by the document storage.
type ProposalDocument struct {
	FileName     string `bson:"fileName,omitempty" json:"fileName,omitempty"`
	DriveFileID  string `bson:"driveFileId,omitempty" json:"driveFileId,omitempty"`
	ViewLink     string `bson:"viewLink,omitempty" json:"viewLink,omitempty"`
	DownloadLink string `bson:"downloadLink,omitempty" json:"downloadLink,omitempty"`
}

// Project is one published capstone project, singular per owner.
type Project struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title             string             `bson:"title" json:"title"`
	Summary           string             `bson:"summary" json:"summary"`
	Evaluation        string             `bson:"evaluation" json:"evaluation"`
	Suggestion        string             `bson:"suggestion" json:"suggestion"`
	Theme             Theme              `bson:"theme" json:"theme"`
	ProjectPhotoURL   string             `bson:"projectPhotoUrl,omitempty" json:"projectPhotoUrl,omitempty"`
	ProposalDriveLink *ProposalDocument  `bson:"proposalDriveLink,omitempty" json:"proposalDriveLink,omitempty"`
	OwnerID           primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Status            ProjectStatus      `bson:"status" json:"status"`
	AvgRating         float64            `bson:"avgRating" json:"avgRating"`
	RatingCount       int                `bson:"ratingCount" json:"ratingCount"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Sanitized returns a copy with the proposal reference removed. Used on
// every read path where the caller is neither owner nor approved requester.
func (p Project) Sanitized() Project {
	p.ProposalDriveLink = nil
	return p
}

// Comment belongs to a project; ParentID enables one level of replies.
type Comment struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProjectID primitive.ObjectID  `bson:"projectId" json:"projectId"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	Text      string              `bson:"text" json:"text"`
	ParentID  *primitive.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Rating is a 1-5 score, unique per (project, user).
type Rating struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID primitive.ObjectID `bson:"projectId" json:"projectId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Score     int                `bson:"score" json:"score"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Request is a requester's bid to continue someone else's project.
type Request struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID   primitive.ObjectID `bson:"projectId" json:"projectId"`
	RequesterID primitive.ObjectID `bson:"requesterId" json:"requesterId"`
	Message     string             `bson:"message" json:"message"`
	Status      RequestStatus      `bson:"status" json:"status"`
	ApprovedAt  *time.Time         `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MemberUpdateMode tags how a member-roster patch is applied.
type MemberUpdateMode string

const (
	// MemberReplace swaps the whole roster for the provided list.
	MemberReplace MemberUpdateMode = "replace"
	// MemberPatch merges the provided entries into the roster by NIM.
	MemberPatch MemberUpdateMode = "patch"
)

// MemberUpdate is the tagged roster patch accepted on profile updates,
// validated against the Member schema before merging.
type MemberUpdate struct {
	Mode    MemberUpdateMode `json:"mode"`
	Members []Member         `json:"members"`
}
