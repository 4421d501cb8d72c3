package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Fannysbth/kel1paw/internal/cache"
	"github.com/Fannysbth/kel1paw/internal/config"
	"github.com/Fannysbth/kel1paw/internal/errs"
	"github.com/Fannysbth/kel1paw/internal/models"
	"github.com/Fannysbth/kel1paw/internal/repository"
)

// In-memory fakes for the store interfaces, the cache, the notifier and the
// uploader. They enforce the same uniqueness rules as the Mongo indexes so
// the services can be exercised end to end without a database.

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) SetWithExpiry(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

func (c *fakeCache) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	c.deleted = append(c.deleted, pattern)
	return n, nil
}

func (c *fakeCache) wasDeleted(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.deleted {
		if k == key {
			return true
		}
	}
	return false
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return errs.Conflict("email already registered")
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Update(ctx context.Context, id primitive.ObjectID, patch bson.M) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errs.NotFound("user not found")
	}
	for key, value := range patch {
		switch key {
		case "groupName":
			u.GroupName = value.(string)
		case "email":
			u.Email = value.(string)
		case "department":
			u.Department = value.(string)
		case "year":
			u.Year = value.(int)
		case "description":
			u.Description = value.(string)
		case "teamPhotoUrl":
			u.TeamPhotoURL = value.(string)
		case "members":
			u.Members = value.([]models.Member)
		case "incomplete":
			u.Incomplete = value.(bool)
		}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return errs.NotFound("user not found")
	}
	delete(f.users, id)
	return nil
}

type fakeProjects struct {
	mu       sync.Mutex
	projects map[primitive.ObjectID]*models.Project
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{projects: map[primitive.ObjectID]*models.Project{}}
}

func (f *fakeProjects) Create(ctx context.Context, project *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.OwnerID == project.OwnerID {
			return errs.Conflict("you already have a published project")
		}
	}
	project.ID = primitive.NewObjectID()
	if project.Status == "" {
		project.Status = models.StatusOpen
	}
	cp := *project
	f.projects[project.ID] = &cp
	return nil
}

func (f *fakeProjects) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, errs.NotFound("project not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) FindByOwner(ctx context.Context, ownerID primitive.ObjectID) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.projects {
		if p.OwnerID == ownerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProjects) Find(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, p := range f.projects {
		if filter.Theme != "" && string(p.Theme) != filter.Theme {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProjects) Update(ctx context.Context, id primitive.ObjectID, patch bson.M) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, errs.NotFound("project not found")
	}
	for key, value := range patch {
		switch key {
		case "title":
			p.Title = value.(string)
		case "summary":
			p.Summary = value.(string)
		case "evaluation":
			p.Evaluation = value.(string)
		case "suggestion":
			p.Suggestion = value.(string)
		case "theme":
			p.Theme = value.(models.Theme)
		case "projectPhotoUrl":
			p.ProjectPhotoURL = value.(string)
		case "status":
			p.Status = value.(models.ProjectStatus)
		case "proposalDriveLink":
			p.ProposalDriveLink = value.(*models.ProposalDocument)
		}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) UpdateRatingStats(ctx context.Context, id primitive.ObjectID, avg float64, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return errs.NotFound("project not found")
	}
	p.AvgRating = avg
	p.RatingCount = count
	return nil
}

func (f *fakeProjects) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return errs.NotFound("project not found")
	}
	delete(f.projects, id)
	return nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]*models.Comment
}

func newFakeComments() *fakeComments {
	return &fakeComments{comments: map[primitive.ObjectID]*models.Comment{}}
}

func (f *fakeComments) Create(ctx context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	cp := *comment
	f.comments[comment.ID] = &cp
	return nil
}

func (f *fakeComments) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, errs.NotFound("comment not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeComments) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, c := range f.comments {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComments) UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, errs.NotFound("comment not found")
	}
	c.Text = text
	cp := *c
	return &cp, nil
}

func (f *fakeComments) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return errs.NotFound("comment not found")
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeComments) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.comments {
		if c.ProjectID == projectID {
			delete(f.comments, id)
		}
	}
	return nil
}

type fakeRatings struct {
	mu      sync.Mutex
	ratings map[primitive.ObjectID]*models.Rating
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: map[primitive.ObjectID]*models.Rating{}}
}

func (f *fakeRatings) Upsert(ctx context.Context, projectID, userID primitive.ObjectID, score int) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.ratings {
		if r.ProjectID == projectID && r.UserID == userID {
			r.Score = score
			cp := *r
			return &cp, nil
		}
	}
	rating := &models.Rating{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		Score:     score,
		CreatedAt: time.Now(),
	}
	f.ratings[rating.ID] = rating
	cp := *rating
	return &cp, nil
}

func (f *fakeRatings) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Rating
	for _, r := range f.ratings {
		if r.ProjectID == projectID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRatings) Aggregate(ctx context.Context, projectID primitive.ObjectID) (float64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, count int
	for _, r := range f.ratings {
		if r.ProjectID == projectID {
			sum += r.Score
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (f *fakeRatings) Delete(ctx context.Context, projectID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.ratings {
		if r.ProjectID == projectID && r.UserID == userID {
			delete(f.ratings, id)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRatings) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.ratings {
		if r.ProjectID == projectID {
			delete(f.ratings, id)
		}
	}
	return nil
}

type fakeRequests struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.Request
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: map[primitive.ObjectID]*models.Request{}}
}

func (f *fakeRequests) Create(ctx context.Context, request *models.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.ProjectID == request.ProjectID && r.RequesterID == request.RequesterID {
			return errs.Conflict("you already requested this project")
		}
	}
	request.ID = primitive.NewObjectID()
	request.Status = models.RequestPending
	request.CreatedAt = time.Now()
	cp := *request
	f.requests[request.ID] = &cp
	return nil
}

func (f *fakeRequests) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, errs.NotFound("request not found")
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Request
	for _, r := range f.requests {
		if r.ProjectID == projectID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequests) FindByRequester(ctx context.Context, requesterID primitive.ObjectID) ([]models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Request
	for _, r := range f.requests {
		if r.RequesterID == requesterID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequests) FindApprovedByRequester(ctx context.Context, requesterID primitive.ObjectID) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.RequesterID == requesterID && r.Status == models.RequestApproved {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRequests) UpdateMessage(ctx context.Context, id primitive.ObjectID, message string) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != models.RequestPending {
		return nil, errs.NotFound("pending request not found")
	}
	r.Message = message
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) SupersedeOthers(ctx context.Context, requesterID, approvedID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.requests {
		if r.RequesterID == requesterID && r.ID != approvedID && r.Status == models.RequestPending {
			r.Status = models.RequestSuperseded
			n++
		}
	}
	return n, nil
}

func (f *fakeRequests) Approve(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != models.RequestPending {
		return nil, errs.NotFound("pending request not found")
	}
	// Mirror of the partial unique index on approved requests.
	for _, other := range f.requests {
		if other.RequesterID == r.RequesterID && other.Status == models.RequestApproved {
			return nil, errs.Conflict("requester already has an approved request")
		}
	}
	now := time.Now()
	r.Status = models.RequestApproved
	r.ApprovedAt = &now
	cp := *r
	return &cp, nil
}

func (f *fakeRequests) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[id]; !ok {
		return errs.NotFound("request not found")
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeRequests) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.requests {
		if r.ProjectID == projectID {
			delete(f.requests, id)
		}
	}
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	received []string
	approved []string
	rejected []string
}

func (n *fakeNotifier) SendRequestReceived(to, projectTitle, requesterGroup, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, to)
	return nil
}

func (n *fakeNotifier) SendRequestApproved(to, projectTitle, proposalLink string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, to)
	return nil
}

func (n *fakeNotifier) SendRequestRejected(to, projectTitle string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, to)
	return nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []string
	deletes  []string
	nextID   int
	failNext bool
}

func (u *fakeUploader) Upload(ctx context.Context, data []byte, fileName, mimeType string) (*models.ProposalDocument, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failNext {
		u.failNext = false
		return nil, errs.Upstream("document storage request failed", nil)
	}
	u.nextID++
	u.uploads = append(u.uploads, fileName)
	return &models.ProposalDocument{
		FileName:     fileName,
		DriveFileID:  "file-" + string(rune('a'+u.nextID)),
		ViewLink:     "https://drive.example/view/" + fileName,
		DownloadLink: "https://drive.example/dl/" + fileName,
	}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, fileID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deletes = append(u.deletes, fileID)
	return nil
}

// testEnv bundles the fakes with fully wired services.
type testEnv struct {
	users    *fakeUsers
	projects *fakeProjects
	comments *fakeComments
	ratings  *fakeRatings
	requests *fakeRequests
	notifier *fakeNotifier
	uploader *fakeUploader
	cache    *fakeCache

	userSvc    *UserService
	projectSvc *ProjectService
	commentSvc *CommentService
	ratingSvc  *RatingService
	requestSvc *RequestService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:    newFakeUsers(),
		projects: newFakeProjects(),
		comments: newFakeComments(),
		ratings:  newFakeRatings(),
		requests: newFakeRequests(),
		notifier: &fakeNotifier{},
		uploader: &fakeUploader{},
		cache:    newFakeCache(),
	}
	inv := cache.NewInvalidator(env.cache)
	ttl := config.CacheConfig{CatalogTTL: time.Hour, OwnerTTL: 30 * time.Minute}

	env.userSvc = NewUserService(env.users, env.cache, inv, ttl)
	env.projectSvc = NewProjectService(env.projects, env.comments, env.ratings, env.requests, env.uploader, env.cache, inv, ttl)
	env.commentSvc = NewCommentService(env.comments, env.projects, env.cache, inv, ttl)
	env.ratingSvc = NewRatingService(env.ratings, env.projects, env.cache, inv, ttl)
	env.requestSvc = NewRequestService(env.requests, env.projects, env.users, env.notifier, env.cache, inv, ttl)
	return env
}

// seedUser registers a group account directly in the store.
func (env *testEnv) seedUser(groupName, email string) *models.User {
	user := &models.User{
		GroupName:  groupName,
		Email:      email,
		Department: "Teknik Informatika",
		Year:       2024,
	}
	if err := env.users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

// seedProject publishes an Open project owned by ownerID.
func (env *testEnv) seedProject(ownerID primitive.ObjectID, title string) *models.Project {
	project := &models.Project{
		Title:   title,
		Summary: "A capstone project",
		Theme:   models.ThemeSmartCity,
		OwnerID: ownerID,
		Status:  models.StatusOpen,
	}
	if err := env.projects.Create(context.Background(), project); err != nil {
		panic(err)
	}
	return project
}
