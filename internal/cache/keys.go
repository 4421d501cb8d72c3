package cache

import "fmt"

// Key builders. Every read path and the invalidation table go through these
// so a key is never assembled twice in two shapes.

// ProjectListPattern matches every cached catalog page regardless of the
// filter combination that produced it.
const ProjectListPattern = "projects:*"

// ProjectKey is the detail cache entry for one project.
func ProjectKey(projectID string) string {
	return "project:" + projectID
}

// ProjectListKey composes every catalog query parameter into the list cache
// key: two requests share an entry only when theme, status, search, page and
// limit all match.
func ProjectListKey(theme, status, search string, page, limit int64) string {
	return fmt.Sprintf("projects:theme=%s:status=%s:search=%s:page=%d:limit=%d",
		theme, status, search, page, limit)
}

// UserProjectsKey is the "my projects" view for one owner.
func UserProjectsKey(ownerID string) string {
	return "user_projects:" + ownerID
}

// UserRequestsKey is the "my requests" view for one requester.
func UserRequestsKey(requesterID string) string {
	return "user_requests:" + requesterID
}

// CommentsKey is the comment list for one project.
func CommentsKey(projectID string) string {
	return "comments:project:" + projectID
}

// RatingsKey is the rating list plus aggregate for one project.
func RatingsKey(projectID string) string {
	return "ratings:project:" + projectID
}

// UserKey is the profile cache entry for one user.
func UserKey(userID string) string {
	return "user:" + userID
}
