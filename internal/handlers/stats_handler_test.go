package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/tarhal-app/backend/internal/models"
)

func newStatsFixture(users ...*models.User) (*StatsHandler, *fakePostRepo, *fakeConversationRepo) {
	userRepo := newFakeUserRepo(users...)
	postRepo := newFakePostRepo()
	commentRepo := newFakeCommentRepo()
	followRepo := newFakeFollowRepo()
	convRepo := newFakeConversationRepo()
	notifRepo := newFakeNotificationRepo()
	h := NewStatsHandler(userRepo, postRepo, commentRepo, followRepo, convRepo, notifRepo)
	return h, postRepo, convRepo
}

func TestTopDestinationsGroupsByCity(t *testing.T) {
	h, postRepo, _ := newStatsFixture(&models.User{ID: 1, Username: "a"})
	postRepo.addCityPost(1, "عمان", 4, time.Now())
	postRepo.addCityPost(1, "عمان", 5, time.Now().Add(-time.Hour))
	postRepo.addCityPost(1, "البتراء", 3, time.Now())
	// Outside the default 7d window
	postRepo.addCityPost(1, "العقبة", 5, time.Now().AddDate(0, 0, -10))

	rec, err := invoke(t, h.TopDestinations, http.MethodGet, "", 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Items  []models.DestinationStat `json:"items"`
		Period string                   `json:"period"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Period != "7d" {
		t.Errorf("period = %q, want %q", resp.Period, "7d")
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].City != "عمان" || resp.Items[0].PostsCount != 2 {
		t.Errorf("top destination = %+v, want عمان with 2 posts", resp.Items[0])
	}
	if resp.Items[0].AverageRating != 4.5 {
		t.Errorf("averageRating = %v, want 4.5", resp.Items[0].AverageRating)
	}
	if resp.Items[1].City != "البتراء" || resp.Items[1].PostsCount != 1 {
		t.Errorf("second destination = %+v, want البتراء with 1 post", resp.Items[1])
	}
}

func TestTopDestinationsInvalidPeriod(t *testing.T) {
	h, _, _ := newStatsFixture()

	cases := []string{"period=abc", "period=0d", "period=-5d", "period=9999d"}
	for _, query := range cases {
		err := h.TopDestinations(contextWithQuery(query))
		if got := httpStatus(t, err); got != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", query, got, http.StatusBadRequest)
		}
	}
}

func TestPlatformStatsCountsBothStores(t *testing.T) {
	h, postRepo, convRepo := newStatsFixture(
		&models.User{ID: 1, Username: "a"},
		&models.User{ID: 2, Username: "b"},
	)
	postRepo.addCityPost(1, "عمان", 4, time.Now())
	conv, _ := convRepo.GetOrCreateConversation(context.Background(), 1, 2)
	convRepo.CreateMessage(context.Background(), &models.Message{
		ConversationID: conv.ID, SenderID: 1, Content: "مرحبا", ReadBy: []uint{1},
	})
	convRepo.CreateMessage(context.Background(), &models.Message{
		ConversationID: conv.ID, SenderID: 2, Content: "أهلا", ReadBy: []uint{2},
	})

	rec, err := invoke(t, h.PlatformStats, http.MethodGet, "", 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Users         int64 `json:"users"`
		Posts         int64 `json:"posts"`
		Conversations int64 `json:"conversations"`
		Messages      int64 `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Users != 2 {
		t.Errorf("users = %d, want 2", resp.Users)
	}
	if resp.Posts != 1 {
		t.Errorf("posts = %d, want 1", resp.Posts)
	}
	if resp.Conversations != 1 {
		t.Errorf("conversations = %d, want 1", resp.Conversations)
	}
	if resp.Messages != 2 {
		t.Errorf("messages = %d, want 2", resp.Messages)
	}
}
