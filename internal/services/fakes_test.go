package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
)

// In-memory repository fakes mirroring the store semantics the services rely
// on: nil-on-absent lookups, Conflict on duplicate inserts, NotFound on
// missed matched updates.

// testEnv wires every service over the fakes, the way the router wires them
// over the real stores.
type testEnv struct {
	users     *fakeUserRepo
	rels      *fakeRelationshipRepo
	posts     *fakePostRepo
	comments  *fakeCommentRepo
	reactions *fakeReactionRepo
	notifs    *fakeNotificationRepo
	saves     *fakeSavedPostRepo

	visibility      *VisibilityService
	notificationSvc *NotificationService
	relationshipSvc *RelationshipService
	reactionSvc     *ReactionService
	commentSvc      *CommentService
	postSvc         *PostService
	cleanupSvc      *CleanupService
	userSvc         *UserService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:     newFakeUserRepo(),
		rels:      newFakeRelationshipRepo(),
		posts:     newFakePostRepo(),
		comments:  newFakeCommentRepo(),
		reactions: newFakeReactionRepo(),
		notifs:    newFakeNotificationRepo(),
		saves:     newFakeSavedPostRepo(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tx := fakeTxRunner{}
	env.visibility = NewVisibilityService(env.users, env.rels, env.comments)
	env.notificationSvc = NewNotificationService(env.notifs, log)
	env.relationshipSvc = NewRelationshipService(env.rels, env.users, env.visibility, env.notificationSvc, tx)
	env.reactionSvc = NewReactionService(env.reactions, env.posts, env.comments, env.visibility, env.notificationSvc, tx)
	env.commentSvc = NewCommentService(env.comments, env.posts, env.visibility, env.notificationSvc, tx)
	env.postSvc = NewPostService(env.posts, env.users, env.rels, env.reactions, env.saves, env.visibility, tx)
	env.cleanupSvc = NewCleanupService(env.rels, env.reactions, env.users, env.posts, env.comments, env.notifs, env.saves, tx, log)
	env.userSvc = NewUserService(env.users, env.rels, env.visibility, env.cleanupSvc)
	return env
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *fakeUserRepo) add(fullname, visibility string) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &models.User{
		ID:         primitive.NewObjectID(),
		Fullname:   fullname,
		Visibility: visibility,
		CreatedAt:  time.Now(),
	}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Visibility == "" {
		user.Visibility = models.VisibilityPublic
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.FirebaseUID == firebaseUID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	if v, ok := fields["fullname"]; ok {
		u.Fullname = v.(string)
	}
	if v, ok := fields["bio"]; ok {
		u.Bio = v.(string)
	}
	if v, ok := fields["avatar_url"]; ok {
		u.AvatarURL = v.(string)
	}
	if v, ok := fields["visibility"]; ok {
		u.Visibility = v.(string)
	}
	return nil
}

func (r *fakeUserRepo) AdjustFollowCounts(ctx context.Context, id primitive.ObjectID, followersDelta, followingDelta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Counts.Followers += followersDelta
		u.Counts.Following += followingDelta
	}
	return nil
}

func (r *fakeUserRepo) IncrementPostsCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Counts.Posts += delta
	}
	return nil
}

func (r *fakeUserRepo) UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListPage(ctx context.Context, ids []primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok && u.DeletedAt == nil {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Fullname != all[j].Fullname {
			return all[i].Fullname < all[j].Fullname
		}
		return all[i].ID.Hex() < all[j].ID.Hex()
	})
	var out []models.User
	for _, u := range all {
		if cursor != nil {
			if u.Fullname < cursor.Value ||
				(u.Fullname == cursor.Value && u.ID.Hex() <= cursor.ID) {
				continue
			}
		}
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, u := range r.users {
		if u.DeletedAt == nil && strings.HasPrefix(strings.ToLower(u.Fullname), strings.ToLower(query)) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fullname < out[j].Fullname })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeUserRepo) MarkDeleted(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

// --- relationships ---

type edgeKey struct {
	follower  primitive.ObjectID
	following primitive.ObjectID
}

type fakeRelationshipRepo struct {
	mu    sync.Mutex
	edges map[edgeKey]*models.Relationship
}

func newFakeRelationshipRepo() *fakeRelationshipRepo {
	return &fakeRelationshipRepo{edges: make(map[edgeKey]*models.Relationship)}
}

func (r *fakeRelationshipRepo) Get(ctx context.Context, followerID, followingID primitive.ObjectID) (*models.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, ok := r.edges[edgeKey{followerID, followingID}]
	if !ok {
		return nil, nil
	}
	cp := *rel
	return &cp, nil
}

func (r *fakeRelationshipRepo) Create(ctx context.Context, rel *models.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := edgeKey{rel.FollowerID, rel.FollowingID}
	if _, exists := r.edges[key]; exists {
		return apperr.Conflict("relationship already exists")
	}
	rel.ID = primitive.NewObjectID()
	rel.CreatedAt = time.Now()
	cp := *rel
	r.edges[key] = &cp
	return nil
}

func (r *fakeRelationshipRepo) UpdateStatus(ctx context.Context, followerID, followingID primitive.ObjectID, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, ok := r.edges[edgeKey{followerID, followingID}]
	if !ok || rel.Status != from {
		return apperr.NotFound("relationship not found")
	}
	rel.Status = to
	return nil
}

func (r *fakeRelationshipRepo) Delete(ctx context.Context, followerID, followingID primitive.ObjectID, statuses ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := edgeKey{followerID, followingID}
	rel, ok := r.edges[key]
	if !ok {
		return apperr.NotFound("relationship not found")
	}
	if len(statuses) > 0 {
		match := false
		for _, s := range statuses {
			if rel.Status == s {
				match = true
			}
		}
		if !match {
			return apperr.NotFound("relationship not found")
		}
	}
	delete(r.edges, key)
	return nil
}

func (r *fakeRelationshipRepo) UpsertBlocked(ctx context.Context, blockerID, blockeeID primitive.ObjectID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := edgeKey{blockerID, blockeeID}
	previous := ""
	if rel, ok := r.edges[key]; ok {
		previous = rel.Status
		rel.Status = models.RelationBlocked
	} else {
		r.edges[key] = &models.Relationship{
			ID:          primitive.NewObjectID(),
			FollowerID:  blockerID,
			FollowingID: blockeeID,
			Status:      models.RelationBlocked,
			CreatedAt:   time.Now(),
		}
	}
	return previous, nil
}

func (r *fakeRelationshipRepo) FollowerIDs(ctx context.Context, userID primitive.ObjectID, status string) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []primitive.ObjectID
	for key, rel := range r.edges {
		if key.following == userID && rel.Status == status {
			out = append(out, key.follower)
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) FollowingIDs(ctx context.Context, userID primitive.ObjectID, status string) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []primitive.ObjectID
	for key, rel := range r.edges {
		if key.follower == userID && rel.Status == status {
			out = append(out, key.following)
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) IsAccepted(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, ok := r.edges[edgeKey{followerID, followingID}]
	return ok && rel.Status == models.RelationAccepted, nil
}

func (r *fakeRelationshipRepo) BlockedPeers(ctx context.Context, userID primitive.ObjectID, candidates []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[primitive.ObjectID]bool)
	for _, cand := range candidates {
		if rel, ok := r.edges[edgeKey{userID, cand}]; ok && rel.Status == models.RelationBlocked {
			out[cand] = true
			continue
		}
		if rel, ok := r.edges[edgeKey{cand, userID}]; ok && rel.Status == models.RelationBlocked {
			out[cand] = true
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Relationship
	for key, rel := range r.edges {
		if key.follower == userID || key.following == userID {
			out = append(out, *rel)
			if int64(len(out)) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeRelationshipRepo) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idSet := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for key, rel := range r.edges {
		if idSet[rel.ID] {
			delete(r.edges, key)
		}
	}
	return nil
}

func (r *fakeRelationshipRepo) status(followerID, followingID primitive.ObjectID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rel, ok := r.edges[edgeKey{followerID, followingID}]; ok {
		return rel.Status
	}
	return ""
}

// --- posts ---

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[primitive.ObjectID]*models.Post)}
}

func (r *fakePostRepo) add(author primitive.ObjectID, content string) *models.Post {
	p := &models.Post{UserID: author, Content: content}
	_ = r.CreatePost(context.Background(), p)
	return p
}

func (r *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, apperr.NotFound("post not found")
	}
	cp := *p
	return &cp, nil
}

func (r *fakePostRepo) ApplyReactionDelta(ctx context.Context, id primitive.ObjectID, like, dislike int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		p.Counts.Reactions.Like += like
		p.Counts.Reactions.Dislike += dislike
	}
	return nil
}

func (r *fakePostRepo) IncrementCommentsCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		p.Counts.Comments += delta
	}
	return nil
}

func (r *fakePostRepo) UpdateMediaStatus(ctx context.Context, id primitive.ObjectID, url, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return apperr.NotFound("post not found")
	}
	for i := range p.Media {
		if p.Media[i].URL == url {
			p.Media[i].Status = status
			return nil
		}
	}
	return apperr.NotFound("media reference not found")
}

func (r *fakePostRepo) SoftDelete(ctx context.Context, id, authorID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.UserID != authorID || p.DeletedAt != nil {
		return apperr.NotFound("post not found")
	}
	now := time.Now()
	p.DeletedAt = &now
	return nil
}

func (r *fakePostRepo) ListByAuthors(ctx context.Context, authorIDs []primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	authors := make(map[primitive.ObjectID]bool, len(authorIDs))
	for _, id := range authorIDs {
		authors[id] = true
	}
	var all []models.Post
	for _, p := range r.posts {
		if authors[p.UserID] && p.DeletedAt == nil {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.Hex() > all[j].ID.Hex()
	})
	var out []models.Post
	for _, p := range all {
		if cursor != nil {
			boundary, err := cursor.TimeValue()
			if err != nil {
				return nil, apperr.InvalidInput("malformed cursor")
			}
			if p.CreatedAt.After(boundary) ||
				(p.CreatedAt.Equal(boundary) && p.ID.Hex() >= cursor.ID) {
				continue
			}
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakePostRepo) PostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Post
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// --- comments ---

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[primitive.ObjectID]*models.Comment)}
}

func (r *fakeCommentRepo) add(postID, author primitive.ObjectID, parentID *primitive.ObjectID) *models.Comment {
	c := &models.Comment{PostID: postID, UserID: author, ParentID: parentID, Content: "c"}
	_ = r.CreateComment(context.Background(), c)
	return c
}

func (r *fakeCommentRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	cp := *comment
	r.comments[comment.ID] = &cp
	return nil
}

func (r *fakeCommentRepo) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, apperr.NotFound("comment not found")
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCommentRepo) ApplyReactionDelta(ctx context.Context, id primitive.ObjectID, like, dislike int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.comments[id]; ok {
		c.Counts.Reactions.Like += like
		c.Counts.Reactions.Dislike += dislike
	}
	return nil
}

func (r *fakeCommentRepo) IncrementRepliesCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.comments[id]; ok {
		c.Counts.Replies += delta
	}
	return nil
}

func (r *fakeCommentRepo) SoftDelete(ctx context.Context, id, authorID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok || c.UserID != authorID || c.DeletedAt != nil {
		return apperr.NotFound("comment not found")
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

func (r *fakeCommentRepo) ListByPost(ctx context.Context, postID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
	return r.list(func(c *models.Comment) bool {
		return c.PostID == postID && c.ParentID == nil
	}, cursor, limit)
}

func (r *fakeCommentRepo) ListReplies(ctx context.Context, parentID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
	return r.list(func(c *models.Comment) bool {
		return c.ParentID != nil && *c.ParentID == parentID
	}, cursor, limit)
}

func (r *fakeCommentRepo) list(match func(*models.Comment) bool, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []models.Comment
	for _, c := range r.comments {
		if match(c) {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.Hex() > all[j].ID.Hex()
	})
	var out []models.Comment
	for _, c := range all {
		if cursor != nil {
			boundary, err := cursor.TimeValue()
			if err != nil {
				return nil, apperr.InvalidInput("malformed cursor")
			}
			if c.CreatedAt.After(boundary) ||
				(c.CreatedAt.Equal(boundary) && c.ID.Hex() >= cursor.ID) {
				continue
			}
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- reactions ---

type reactionKey struct {
	user   primitive.ObjectID
	target primitive.ObjectID
}

type fakeReactionRepo struct {
	mu        sync.Mutex
	reactions map[reactionKey]*models.Reaction
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{reactions: make(map[reactionKey]*models.Reaction)}
}

func (r *fakeReactionRepo) Get(ctx context.Context, userID, targetID primitive.ObjectID) (*models.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	re, ok := r.reactions[reactionKey{userID, targetID}]
	if !ok {
		return nil, nil
	}
	cp := *re
	return &cp, nil
}

func (r *fakeReactionRepo) Upsert(ctx context.Context, reaction *models.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reactionKey{reaction.UserID, reaction.TargetID}
	if existing, ok := r.reactions[key]; ok {
		existing.Type = reaction.Type
		return nil
	}
	reaction.ID = primitive.NewObjectID()
	reaction.CreatedAt = time.Now()
	cp := *reaction
	r.reactions[key] = &cp
	return nil
}

func (r *fakeReactionRepo) Delete(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reactionKey{userID, targetID}
	_, ok := r.reactions[key]
	delete(r.reactions, key)
	return ok, nil
}

func (r *fakeReactionRepo) TypesForTargets(ctx context.Context, userID primitive.ObjectID, targetIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[primitive.ObjectID]string)
	for _, id := range targetIDs {
		if re, ok := r.reactions[reactionKey{userID, id}]; ok {
			out[id] = re.Type
		}
	}
	return out, nil
}

func (r *fakeReactionRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Reaction
	for key, re := range r.reactions {
		if key.user == userID {
			out = append(out, *re)
			if int64(len(out)) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeReactionRepo) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idSet := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for key, re := range r.reactions {
		if idSet[re.ID] {
			delete(r.reactions, key)
		}
	}
	return nil
}

// --- notifications ---

type fakeNotificationRepo struct {
	mu     sync.Mutex
	nextID uint
	items  []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) CreateNotification(notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	notification.ID = r.nextID
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	cp := *notification
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeNotificationRepo) FindRecentUnseen(senderID, receiverID, notifType, targetID string, since time.Time) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.SenderID == senderID && n.ReceiverID == receiverID && n.Type == notifType &&
			n.TargetID == targetID && n.SeenAt == nil && !n.CreatedAt.Before(since) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeNotificationRepo) DeleteRecentUnseen(senderID, receiverID, notifType string, since time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, n := range r.items {
		if n.SenderID == senderID && n.ReceiverID == receiverID && n.Type == notifType &&
			n.SeenAt == nil && !n.CreatedAt.Before(since) {
			continue
		}
		kept = append(kept, n)
	}
	r.items = kept
	return nil
}

func (r *fakeNotificationRepo) List(receiverID string, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.items {
		if n.ReceiverID == receiverID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) UnseenCount(receiverID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.items {
		if n.ReceiverID == receiverID && n.SeenAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkSeen(id uint, receiverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.items {
		if n.ID == id && n.ReceiverID == receiverID && n.SeenAt == nil {
			now := time.Now()
			n.SeenAt = &now
			return nil
		}
	}
	return apperr.NotFound("notification not found")
}

func (r *fakeNotificationRepo) MarkAllSeen(receiverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, n := range r.items {
		if n.ReceiverID == receiverID && n.SeenAt == nil {
			n.SeenAt = &now
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteBatchByUser(userID string, batch int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	kept := r.items[:0]
	for _, n := range r.items {
		if deleted < int64(batch) && (n.SenderID == userID || n.ReceiverID == userID) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.items = kept
	return deleted, nil
}

func (r *fakeNotificationRepo) all(receiverID string) []models.Notification {
	out, _ := r.List(receiverID, nil, 1000)
	return out
}

// --- saved posts ---

type fakeSavedPostRepo struct {
	mu     sync.Mutex
	nextID uint
	items  []*models.SavedPost
}

func newFakeSavedPostRepo() *fakeSavedPostRepo {
	return &fakeSavedPostRepo{}
}

func sameCollection(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *fakeSavedPostRepo) SavePost(savedPost *models.SavedPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.UserID == savedPost.UserID && s.PostID == savedPost.PostID &&
			sameCollection(s.CollectionID, savedPost.CollectionID) {
			return apperr.Conflict("post already saved")
		}
	}
	r.nextID++
	savedPost.ID = r.nextID
	if savedPost.CreatedAt.IsZero() {
		savedPost.CreatedAt = time.Now()
	}
	cp := *savedPost
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeSavedPostRepo) UnsavePost(userID, postID string, collectionID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.items {
		if s.UserID == userID && s.PostID == postID && sameCollection(s.CollectionID, collectionID) {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("saved post not found")
}

func (r *fakeSavedPostRepo) ListByUser(userID string, cursor *pagination.Cursor, limit int) ([]models.SavedPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SavedPost
	for _, s := range r.items {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSavedPostRepo) SavedSet(userID string, postIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	out := make(map[string]bool)
	for _, s := range r.items {
		if s.UserID == userID && want[s.PostID] {
			out[s.PostID] = true
		}
	}
	return out, nil
}

func (r *fakeSavedPostRepo) DeleteBatchByUser(userID string, batch int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	kept := r.items[:0]
	for _, s := range r.items {
		if deleted < int64(batch) && s.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	r.items = kept
	return deleted, nil
}
