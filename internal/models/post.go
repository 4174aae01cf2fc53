package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is the place a post was taken at
type Location struct {
	Name string  `json:"name" bson:"name" validate:"required"`
	City string  `json:"city" bson:"city" validate:"required"`
	Lng  float64 `json:"lng" bson:"lng"`
	Lat  float64 `json:"lat" bson:"lat"`
}

// Post is a travel post stored in MongoDB. Visibility is never stored on the
// post; it is derived per request from the owner's privacy and the viewer's
// relationship to the owner.
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        uint               `json:"user_id" bson:"user_id"`
	Caption       string             `json:"caption" bson:"caption"`
	ImageURLs     []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	Location      Location           `json:"location" bson:"location"`
	Rating        int                `json:"rating" bson:"rating"`
	Hashtags      []string           `json:"hashtags,omitempty" bson:"hashtags,omitempty"`
	TaggedUserIDs []uint             `json:"tagged_user_ids,omitempty" bson:"tagged_user_ids,omitempty"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// DestinationStat is one row of the trending-destinations aggregation:
// a city with its post volume and average rating over the window.
type DestinationStat struct {
	City          string  `json:"city" bson:"_id"`
	PostsCount    int64   `json:"postsCount" bson:"posts_count"`
	AverageRating float64 `json:"averageRating" bson:"average_rating"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Caption       string   `json:"caption" validate:"required,min=1,max=2200"`
	ImageURLs     []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	Location      Location `json:"location" validate:"required"`
	Rating        int      `json:"rating" validate:"required,min=1,max=5"`
	Hashtags      []string `json:"hashtags,omitempty" validate:"omitempty,dive,min=1,max=64"`
	TaggedUserIDs []uint   `json:"tagged_user_ids,omitempty"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Caption   string   `json:"caption,omitempty" validate:"omitempty,min=1,max=2200"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	Rating    int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Hashtags  []string `json:"hashtags,omitempty" validate:"omitempty,dive,min=1,max=64"`
}
