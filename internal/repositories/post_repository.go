package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/tarhal-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrPostNotFound is returned when no post matches the given id
var ErrPostNotFound = fmt.Errorf("post not found")

// PostQuery restricts a posts listing. Zero values mean "no restriction".
type PostQuery struct {
	Before       time.Time // strict upper bound on created_at
	UserID       uint      // only posts owned by this user
	Hashtag      string
	TaggedUserID uint
	Search       string // case-insensitive caption match
	Limit        int64
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error)
	ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error)
	ListOlder(ctx context.Context, before time.Time, excludedUserIDs []uint, limit int64) ([]models.Post, error)
	ListNewer(ctx context.Context, after time.Time, excludedUserIDs []uint, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, req *models.UpdatePostRequest) error
	DeletePost(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
	CountPosts(ctx context.Context) (int64, error)
	TopDestinations(ctx context.Context, since time.Time, limit int64) ([]models.DestinationStat, error)
	IncrementLikesCount(ctx context.Context, postID string, delta int) error
	IncrementCommentsCount(ctx context.Context, postID string, delta int) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID format: %w", err)
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByIDs loads a batch of posts in a single query, keyed by hex id.
// Malformed and missing ids are simply absent from the result.
func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []string) (map[string]*models.Post, error) {
	result := make(map[string]*models.Post, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		result[posts[i].ID.Hex()] = &posts[i]
	}
	return result, nil
}

// ListPosts retrieves posts newest-first. Callers fetch limit+1 rows and use
// the overflow row to decide whether a next page exists.
func (r *MongoPostRepository) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, error) {
	filter := bson.M{}
	if !q.Before.IsZero() {
		filter["created_at"] = bson.M{"$lt": q.Before}
	}
	if q.UserID != 0 {
		filter["user_id"] = q.UserID
	}
	if q.Hashtag != "" {
		filter["hashtags"] = q.Hashtag
	}
	if q.TaggedUserID != 0 {
		filter["tagged_user_ids"] = q.TaggedUserID
	}
	if q.Search != "" {
		filter["caption"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}}
	}

	findOptions := options.Find().
		SetLimit(q.Limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListOlder returns posts created strictly before the given time, newest
// first, skipping excluded owners at the query level.
func (r *MongoPostRepository) ListOlder(ctx context.Context, before time.Time, excludedUserIDs []uint, limit int64) ([]models.Post, error) {
	return r.listAdjacent(ctx, bson.M{"$lt": before}, -1, excludedUserIDs, limit)
}

// ListNewer returns posts created strictly after the given time, oldest first
func (r *MongoPostRepository) ListNewer(ctx context.Context, after time.Time, excludedUserIDs []uint, limit int64) ([]models.Post, error) {
	return r.listAdjacent(ctx, bson.M{"$gt": after}, 1, excludedUserIDs, limit)
}

func (r *MongoPostRepository) listAdjacent(ctx context.Context, createdAt bson.M, sort int, excludedUserIDs []uint, limit int64) ([]models.Post, error) {
	filter := bson.M{"created_at": createdAt}
	if len(excludedUserIDs) > 0 {
		filter["user_id"] = bson.M{"$nin": excludedUserIDs}
	}
	findOptions := options.Find().
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: sort}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost updates the mutable fields of an existing post
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, req *models.UpdatePostRequest) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	set := bson.M{"updated_at": time.Now()}
	if req.Caption != "" {
		set["caption"] = req.Caption
	}
	if req.ImageURLs != nil {
		set["image_urls"] = req.ImageURLs
	}
	if req.Rating != 0 {
		set["rating"] = req.Rating
	}
	if req.Hashtags != nil {
		set["hashtags"] = req.Hashtags
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *MongoPostRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
}

func (r *MongoPostRepository) CountPosts(ctx context.Context) (int64, error) {
	return r.collection.EstimatedDocumentCount(ctx)
}

// TopDestinations groups recent posts by city and returns the busiest ones
// with their average rating, most-posted first.
func (r *MongoPostRepository) TopDestinations(ctx context.Context, since time.Time, limit int64) ([]models.DestinationStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"created_at":    bson.M{"$gte": since},
			"location.city": bson.M{"$ne": ""},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$location.city",
			"posts_count":    bson.M{"$sum": 1},
			"average_rating": bson.M{"$avg": "$rating"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "posts_count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []models.DestinationStat
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// IncrementLikesCount adjusts the likes counter atomically at the store level
func (r *MongoPostRepository) IncrementLikesCount(ctx context.Context, postID string, delta int) error {
	return r.incrementCounter(ctx, postID, "likes_count", delta)
}

// IncrementCommentsCount adjusts the comments counter atomically at the store level
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, postID string, delta int) error {
	return r.incrementCounter(ctx, postID, "comments_count", delta)
}

func (r *MongoPostRepository) incrementCounter(ctx context.Context, postID, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return err
}
