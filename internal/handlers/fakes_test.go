package handlers

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"

	"github.com/tarhal-app/backend/internal/models"
	"github.com/tarhal-app/backend/internal/repositories"
	"github.com/tarhal-app/backend/internal/validators"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// --- users ---

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*models.User), nextID: 1}
	for _, u := range users {
		if u.ID == 0 {
			u.ID = r.nextID
		}
		if u.ID >= r.nextID {
			r.nextID = u.ID + 1
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateUser(u *models.User) error {
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUsersByIDs(ids []uint) (map[uint]*models.User, error) {
	result := make(map[uint]*models.User)
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdateUser(u *models.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) SearchUsers(query string, limit int) ([]models.User, error) {
	var out []models.User
	q := strings.ToLower(query)
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, *u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UsernameExists(username string) (bool, error) {
	_, err := r.GetUserByUsername(username)
	return err == nil, nil
}

func (r *fakeUserRepo) CountUsers() (int64, error) {
	return int64(len(r.users)), nil
}

// --- follows ---

type fakeFollowRepo struct {
	follows map[uint]*models.Follow
	nextID  uint
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{follows: make(map[uint]*models.Follow), nextID: 1}
}

func (r *fakeFollowRepo) add(followerID, followingID uint, status models.FollowStatus) *models.Follow {
	f := &models.Follow{
		ID:          r.nextID,
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	r.nextID++
	r.follows[f.ID] = f
	return f
}

func (r *fakeFollowRepo) UpsertFollow(followerID, followingID uint, status models.FollowStatus) (*models.Follow, error) {
	if existing, err := r.GetFollow(followerID, followingID); err == nil {
		return existing, nil
	}
	return r.add(followerID, followingID, status), nil
}

func (r *fakeFollowRepo) GetFollowByID(id uint) (*models.Follow, error) {
	if f, ok := r.follows[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFollowRepo) GetFollow(followerID, followingID uint) (*models.Follow, error) {
	for _, f := range r.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFollowRepo) AcceptFollow(id uint) error {
	f, ok := r.follows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Status = models.FollowAccepted
	return nil
}

func (r *fakeFollowRepo) DeleteFollowByID(id, followerID uint) error {
	if f, ok := r.follows[id]; ok && f.FollowerID == followerID {
		delete(r.follows, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeFollowRepo) DeleteFollowByPair(followerID, followingID uint) error {
	for id, f := range r.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			delete(r.follows, id)
		}
	}
	return nil
}

func (r *fakeFollowRepo) DeleteFollow(id uint) error {
	delete(r.follows, id)
	return nil
}

func (r *fakeFollowRepo) IsFollowingAccepted(viewerID, ownerID uint) (bool, error) {
	f, err := r.GetFollow(viewerID, ownerID)
	if err != nil {
		return false, nil
	}
	return f.Status == models.FollowAccepted, nil
}

func (r *fakeFollowRepo) AcceptedFollowingIDSet(viewerID uint, ownerIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	for _, id := range ownerIDs {
		if ok, _ := r.IsFollowingAccepted(viewerID, id); ok {
			result[id] = true
		}
	}
	return result, nil
}

func (r *fakeFollowRepo) HasAcceptedEither(a, b uint) (bool, error) {
	if ok, _ := r.IsFollowingAccepted(a, b); ok {
		return true, nil
	}
	return r.IsFollowingAccepted(b, a)
}

func (r *fakeFollowRepo) ListFollowers(ownerID uint, before time.Time, limit int) ([]models.Follow, error) {
	var out []models.Follow
	for _, f := range r.follows {
		if f.FollowingID == ownerID && f.Status == models.FollowAccepted &&
			(before.IsZero() || f.CreatedAt.Before(before)) {
			out = append(out, *f)
		}
	}
	sortFollowsDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeFollowRepo) ListFollowing(followerID uint, before time.Time, limit int) ([]models.Follow, error) {
	var out []models.Follow
	for _, f := range r.follows {
		if f.FollowerID == followerID && f.Status == models.FollowAccepted &&
			(before.IsZero() || f.CreatedAt.Before(before)) {
			out = append(out, *f)
		}
	}
	sortFollowsDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeFollowRepo) ListPendingRequests(ownerID uint) ([]models.Follow, error) {
	var out []models.Follow
	for _, f := range r.follows {
		if f.FollowingID == ownerID && f.Status == models.FollowPending {
			out = append(out, *f)
		}
	}
	sortFollowsDesc(out)
	return out, nil
}

func (r *fakeFollowRepo) CountFollowers(ownerID uint) (int64, error) {
	var count int64
	for _, f := range r.follows {
		if f.FollowingID == ownerID && f.Status == models.FollowAccepted {
			count++
		}
	}
	return count, nil
}

func (r *fakeFollowRepo) CountFollowing(followerID uint) (int64, error) {
	var count int64
	for _, f := range r.follows {
		if f.FollowerID == followerID && f.Status == models.FollowAccepted {
			count++
		}
	}
	return count, nil
}

func (r *fakeFollowRepo) CountFollows() (int64, error) {
	return int64(len(r.follows)), nil
}

func sortFollowsDesc(follows []models.Follow) {
	sort.Slice(follows, func(i, j int) bool {
		return follows[i].CreatedAt.After(follows[j].CreatedAt)
	})
}

// --- blocks ---

type fakeBlockRepo struct {
	blocks map[[2]uint]time.Time
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocks: make(map[[2]uint]time.Time)}
}

func (r *fakeBlockRepo) CreateBlock(blockerID, blockedID uint) error {
	if _, ok := r.blocks[[2]uint{blockerID, blockedID}]; !ok {
		r.blocks[[2]uint{blockerID, blockedID}] = time.Now()
	}
	return nil
}

func (r *fakeBlockRepo) DeleteBlock(blockerID, blockedID uint) error {
	delete(r.blocks, [2]uint{blockerID, blockedID})
	return nil
}

func (r *fakeBlockRepo) ListBlocked(blockerID uint) ([]models.Block, error) {
	var out []models.Block
	for pair, at := range r.blocks {
		if pair[0] == blockerID {
			out = append(out, models.Block{BlockerID: pair[0], BlockedID: pair[1], CreatedAt: at})
		}
	}
	return out, nil
}

func (r *fakeBlockRepo) ExcludedCounterparts(viewerID uint, candidateIDs []uint) (map[uint]struct{}, error) {
	excluded := make(map[uint]struct{})
	for _, id := range candidateIDs {
		if _, ok := r.blocks[[2]uint{viewerID, id}]; ok {
			excluded[id] = struct{}{}
		}
		if _, ok := r.blocks[[2]uint{id, viewerID}]; ok {
			excluded[id] = struct{}{}
		}
	}
	return excluded, nil
}

func (r *fakeBlockRepo) IsBlockedEither(a, b uint) (bool, error) {
	if _, ok := r.blocks[[2]uint{a, b}]; ok {
		return true, nil
	}
	_, ok := r.blocks[[2]uint{b, a}]
	return ok, nil
}

// --- posts ---

type fakePostRepo struct {
	posts []models.Post
}

func newFakePostRepo() *fakePostRepo { return &fakePostRepo{} }

func (r *fakePostRepo) addPost(userID uint, caption string, createdAt time.Time) models.Post {
	post := models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Caption:   caption,
		CreatedAt: createdAt,
	}
	r.posts = append(r.posts, post)
	return post
}

func (r *fakePostRepo) addCityPost(userID uint, city string, rating int, createdAt time.Time) models.Post {
	post := models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Location:  models.Location{Name: city, City: city},
		Rating:    rating,
		CreatedAt: createdAt,
	}
	r.posts = append(r.posts, post)
	return post
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	r.posts = append(r.posts, *post)
	return nil
}

func (r *fakePostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	for i := range r.posts {
		if r.posts[i].ID.Hex() == id {
			return &r.posts[i], nil
		}
	}
	return nil, repositories.ErrPostNotFound
}

func (r *fakePostRepo) GetPostsByIDs(_ context.Context, ids []string) (map[string]*models.Post, error) {
	result := make(map[string]*models.Post)
	for _, id := range ids {
		for i := range r.posts {
			if r.posts[i].ID.Hex() == id {
				result[id] = &r.posts[i]
			}
		}
	}
	return result, nil
}

func (r *fakePostRepo) ListPosts(_ context.Context, q repositories.PostQuery) ([]models.Post, error) {
	var out []models.Post
	for _, p := range r.posts {
		if !q.Before.IsZero() && !p.CreatedAt.Before(q.Before) {
			continue
		}
		if q.UserID != 0 && p.UserID != q.UserID {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(p.Caption), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *fakePostRepo) ListOlder(_ context.Context, before time.Time, _ []uint, limit int64) ([]models.Post, error) {
	var out []models.Post
	for _, p := range r.posts {
		if p.CreatedAt.Before(before) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) ListNewer(_ context.Context, after time.Time, _ []uint, limit int64) ([]models.Post, error) {
	var out []models.Post
	for _, p := range r.posts {
		if p.CreatedAt.After(after) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) UpdatePost(_ context.Context, id string, req *models.UpdatePostRequest) error {
	for i := range r.posts {
		if r.posts[i].ID.Hex() == id {
			if req.Caption != "" {
				r.posts[i].Caption = req.Caption
			}
			return nil
		}
	}
	return repositories.ErrPostNotFound
}

func (r *fakePostRepo) DeletePost(_ context.Context, id string) error {
	for i := range r.posts {
		if r.posts[i].ID.Hex() == id {
			r.posts = append(r.posts[:i], r.posts[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPostNotFound
}

func (r *fakePostRepo) CountByUser(_ context.Context, userID uint) (int64, error) {
	var count int64
	for _, p := range r.posts {
		if p.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *fakePostRepo) CountPosts(_ context.Context) (int64, error) {
	return int64(len(r.posts)), nil
}

func (r *fakePostRepo) TopDestinations(_ context.Context, since time.Time, limit int64) ([]models.DestinationStat, error) {
	type bucket struct {
		count int64
		total int
	}
	buckets := make(map[string]*bucket)
	for _, p := range r.posts {
		if p.CreatedAt.Before(since) || p.Location.City == "" {
			continue
		}
		b := buckets[p.Location.City]
		if b == nil {
			b = &bucket{}
			buckets[p.Location.City] = b
		}
		b.count++
		b.total += p.Rating
	}

	var out []models.DestinationStat
	for city, b := range buckets {
		out = append(out, models.DestinationStat{
			City:          city,
			PostsCount:    b.count,
			AverageRating: float64(b.total) / float64(b.count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostsCount > out[j].PostsCount })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) IncrementLikesCount(_ context.Context, postID string, delta int) error {
	for i := range r.posts {
		if r.posts[i].ID.Hex() == postID {
			r.posts[i].LikesCount += delta
			return nil
		}
	}
	return repositories.ErrPostNotFound
}

func (r *fakePostRepo) IncrementCommentsCount(_ context.Context, postID string, delta int) error {
	for i := range r.posts {
		if r.posts[i].ID.Hex() == postID {
			r.posts[i].CommentsCount += delta
			return nil
		}
	}
	return repositories.ErrPostNotFound
}

// --- likes ---

type fakeLikeRepo struct {
	likes map[string]map[uint]time.Time
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: make(map[string]map[uint]time.Time)}
}

func (r *fakeLikeRepo) CreateLike(postID string, userID uint) (bool, error) {
	if r.likes[postID] == nil {
		r.likes[postID] = make(map[uint]time.Time)
	}
	if _, ok := r.likes[postID][userID]; ok {
		return false, nil
	}
	r.likes[postID][userID] = time.Now()
	return true, nil
}

func (r *fakeLikeRepo) DeleteLike(postID string, userID uint) (bool, error) {
	if _, ok := r.likes[postID][userID]; !ok {
		return false, nil
	}
	delete(r.likes[postID], userID)
	return true, nil
}

func (r *fakeLikeRepo) HasUserLikedPost(postID string, userID uint) (bool, error) {
	_, ok := r.likes[postID][userID]
	return ok, nil
}

func (r *fakeLikeRepo) LikedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	for _, id := range postIDs {
		if _, ok := r.likes[id][userID]; ok {
			result[id] = true
		}
	}
	return result, nil
}

func (r *fakeLikeRepo) ListPostLikes(postID string, limit int) ([]models.Like, error) {
	var out []models.Like
	for userID, at := range r.likes[postID] {
		out = append(out, models.Like{PostID: postID, UserID: userID, CreatedAt: at})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- saved posts ---

type fakeSavedPostRepo struct {
	saved map[uint]map[string]time.Time
}

func newFakeSavedPostRepo() *fakeSavedPostRepo {
	return &fakeSavedPostRepo{saved: make(map[uint]map[string]time.Time)}
}

func (r *fakeSavedPostRepo) SavePost(userID uint, postID string) error {
	if r.saved[userID] == nil {
		r.saved[userID] = make(map[string]time.Time)
	}
	if _, ok := r.saved[userID][postID]; !ok {
		r.saved[userID][postID] = time.Now()
	}
	return nil
}

func (r *fakeSavedPostRepo) UnsavePost(userID uint, postID string) error {
	delete(r.saved[userID], postID)
	return nil
}

func (r *fakeSavedPostRepo) SavedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	for _, id := range postIDs {
		if _, ok := r.saved[userID][id]; ok {
			result[id] = true
		}
	}
	return result, nil
}

func (r *fakeSavedPostRepo) ListSaved(userID uint, before time.Time, limit int) ([]models.SavedPost, error) {
	var out []models.SavedPost
	for postID, at := range r.saved[userID] {
		if before.IsZero() || at.Before(before) {
			out = append(out, models.SavedPost{UserID: userID, PostID: postID, CreatedAt: at})
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- notifications ---

type fakeNotificationRepo struct {
	notifications []*models.Notification
	nextID        uint
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	n.ID = r.nextID
	r.nextID++
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *fakeNotificationRepo) ListNotifications(recipientID uint, before time.Time, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && (before.IsZero() || n.CreatedAt.Before(before)) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(id, recipientID uint) error {
	for _, n := range r.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(recipientID uint) error {
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) CountUnread(recipientID uint) (int64, error) {
	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) CountNotifications() (int64, error) {
	return int64(len(r.notifications)), nil
}

// --- comments ---

type fakeCommentRepo struct {
	comments map[uint]*models.Comment
	likes    map[[2]uint]struct{}
	nextID   uint
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{
		comments: make(map[uint]*models.Comment),
		likes:    make(map[[2]uint]struct{}),
		nextID:   1,
	}
}

func (r *fakeCommentRepo) CreateComment(comment *models.Comment) error {
	comment.ID = r.nextID
	r.nextID++
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = comment
	return nil
}

func (r *fakeCommentRepo) GetCommentByID(id uint) (*models.Comment, error) {
	if c, ok := r.comments[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCommentRepo) ListByPost(postID string, before time.Time, limit int) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range r.comments {
		if c.PostID == postID && (before.IsZero() || c.CreatedAt.Before(before)) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeCommentRepo) DeleteComment(id, userID uint) error {
	if c, ok := r.comments[id]; ok && c.UserID == userID {
		delete(r.comments, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCommentRepo) CreateCommentLike(commentID, userID uint) (bool, error) {
	if _, ok := r.likes[[2]uint{commentID, userID}]; ok {
		return false, nil
	}
	r.likes[[2]uint{commentID, userID}] = struct{}{}
	return true, nil
}

func (r *fakeCommentRepo) DeleteCommentLike(commentID, userID uint) (bool, error) {
	if _, ok := r.likes[[2]uint{commentID, userID}]; !ok {
		return false, nil
	}
	delete(r.likes, [2]uint{commentID, userID})
	return true, nil
}

func (r *fakeCommentRepo) AdjustLikesCount(commentID uint, delta int) error {
	if c, ok := r.comments[commentID]; ok {
		c.LikesCount += delta
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCommentRepo) CountComments() (int64, error) {
	return int64(len(r.comments)), nil
}

// --- conversations ---

type fakeConversationRepo struct {
	conversations []*models.Conversation
	messages      []*models.Message
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{}
}

func (r *fakeConversationRepo) GetOrCreateConversation(_ context.Context, a, b uint) (*models.Conversation, error) {
	for _, conv := range r.conversations {
		if conv.HasParticipant(a) && conv.HasParticipant(b) {
			return conv, nil
		}
	}
	conv := &models.Conversation{
		ID:             primitive.NewObjectID(),
		ParticipantIDs: []uint{a, b},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	r.conversations = append(r.conversations, conv)
	return conv, nil
}

func (r *fakeConversationRepo) GetConversationByID(_ context.Context, id string) (*models.Conversation, error) {
	for _, conv := range r.conversations {
		if conv.ID.Hex() == id {
			return conv, nil
		}
	}
	return nil, repositories.ErrConversationNotFound
}

func (r *fakeConversationRepo) ListConversations(_ context.Context, userID uint) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, conv := range r.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) CreateMessage(_ context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, msg)
	for _, conv := range r.conversations {
		if conv.ID == msg.ConversationID {
			conv.LastMessageID = msg.ID
			conv.UpdatedAt = msg.CreatedAt
		}
	}
	return nil
}

func (r *fakeConversationRepo) GetMessagesByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Message, error) {
	result := make(map[primitive.ObjectID]*models.Message)
	for _, id := range ids {
		for _, m := range r.messages {
			if m.ID == id {
				result[id] = m
			}
		}
	}
	return result, nil
}

func (r *fakeConversationRepo) ListMessages(_ context.Context, conversationID primitive.ObjectID, before time.Time, limit int64) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID && (before.IsZero() || m.CreatedAt.Before(before)) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeConversationRepo) CountUnread(_ context.Context, conversationID primitive.ObjectID, userID uint) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.SenderID == userID {
			continue
		}
		read := false
		for _, id := range m.ReadBy {
			if id == userID {
				read = true
			}
		}
		if !read {
			count++
		}
	}
	return count, nil
}

func (r *fakeConversationRepo) UnreadCounts(ctx context.Context, conversationIDs []primitive.ObjectID, userID uint) (map[primitive.ObjectID]int64, error) {
	counts := make(map[primitive.ObjectID]int64)
	for _, id := range conversationIDs {
		count, err := r.CountUnread(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			counts[id] = count
		}
	}
	return counts, nil
}

func (r *fakeConversationRepo) CountConversations(_ context.Context) (int64, error) {
	return int64(len(r.conversations)), nil
}

func (r *fakeConversationRepo) CountMessages(_ context.Context) (int64, error) {
	return int64(len(r.messages)), nil
}

func (r *fakeConversationRepo) MarkMessagesRead(_ context.Context, conversationID primitive.ObjectID, userID uint) error {
	for _, m := range r.messages {
		if m.ConversationID != conversationID || m.SenderID == userID {
			continue
		}
		read := false
		for _, id := range m.ReadBy {
			if id == userID {
				read = true
			}
		}
		if !read {
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	return nil
}
