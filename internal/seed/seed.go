// Package seed builds the records the app starts with and loads them into a store.
//
// The fixed data set is what every session starts from and what logout
// returns to. Timestamps are relative to the moment the data is built, so the
// feed always reads "an hour ago", "yesterday" and so on.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
)

// ViewerID is the id of the synthetic current user.
const ViewerID = "curr_user_1"

// Data is a complete initial state. Slices are in display order: Posts and
// Notifications newest first, Messages oldest first.
type Data struct {
	Viewer        model.User
	Users         []model.User // includes Viewer first
	Posts         []model.Post
	Messages      []model.Message
	Notifications []model.Notification
	Following     []string
}

func avatar(id int) string {
	return fmt.Sprintf("https://picsum.photos/id/%d/200/200", id)
}

// Fixed returns the built-in data set with timestamps relative to now.
func Fixed(now time.Time) Data {
	viewer := model.User{
		ID:        ViewerID,
		Name:      "أحمد محمد",
		Avatar:    avatar(64),
		Followers: 1250,
		Following: 234,
		ProfileDetails: model.ProfileDetails{
			Username:      "ahmed_mo",
			Email:         "ahmed.mo@example.com",
			Phone:         "+20 100 000 0000",
			Bio:           "مطور واجهات أمامية شغوف بالتكنولوجيا والذكاء الاصطناعي.",
			Country:       "مصر",
			Gender:        "ذكر",
			Job:           "مطور برمجيات",
			Qualification: "بكالوريوس علوم حاسب",
		},
		NotificationPreferences: &model.NotificationPreferences{Likes: true, Comments: true, Follows: true},
		PrivacySettings:         &model.PrivacySettings{IsPrivate: false, ShowActivityStatus: true},
	}

	others := []model.User{
		{ID: "user_2", Name: "سارة علي", Avatar: avatar(65), Followers: 530, Following: 120,
			ProfileDetails: model.ProfileDetails{Username: "sara_ali", Bio: "مصممة جرافيك"}},
		{ID: "u3", Name: "خالد عمر", Avatar: avatar(91), Followers: 210, Following: 300,
			ProfileDetails: model.ProfileDetails{Username: "khaled_o", Bio: "مهندس مدني"}},
		{ID: "u4", Name: "يوسف أحمد", Avatar: avatar(77), Followers: 89, Following: 150,
			ProfileDetails: model.ProfileDetails{Username: "yousef_a", Bio: "طالب"}},
		{ID: "user_3", Name: "Tech News Ar", Avatar: avatar(180), Followers: 15400, Following: 20,
			ProfileDetails: model.ProfileDetails{Username: "technews", Bio: "أخبار التقنية"}},
	}

	posts := []model.Post{
		{
			ID:        "p1",
			AuthorID:  ViewerID,
			Content:   "أعمل حالياً على مشروع جديد باستخدام React و Tailwind. النتيجة مبهرة حتى الآن! 🚀💻",
			Likes:     15,
			Comments:  []model.Comment{},
			Shares:    2,
			CreatedAt: now.Add(-time.Hour),
		},
		{
			ID:       "p2",
			AuthorID: "user_2",
			Content:  "صورة من رحلتي الأخيرة إلى الإسكندرية. الجو كان رائعاً! 🌊☀️",
			Image:    "https://picsum.photos/id/1040/800/600",
			Likes:    42,
			IsLiked:  true,
			Comments: []model.Comment{
				{ID: "c1", AuthorID: ViewerID, Text: "صورة جميلة جداً!", CreatedAt: now.Add(-30 * time.Minute)},
			},
			Shares:    5,
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID:        "p3",
			AuthorID:  "user_3",
			Content:   "جوجل تطلق نموذجاً جديداً للذكاء الاصطناعي يتفوق على المنافسين في فهم اللغة العربية.",
			Likes:     340,
			Comments:  []model.Comment{},
			Shares:    120,
			CreatedAt: now.Add(-24 * time.Hour),
		},
	}

	messages := []model.Message{
		{ID: "m1", SenderID: "user_2", ReceiverID: ViewerID, Content: "مرحباً أحمد، كيف حالك؟", CreatedAt: now.Add(-60 * time.Minute)},
		{ID: "m2", SenderID: ViewerID, ReceiverID: "user_2", Content: "أهلاً سارة، أنا بخير الحمد لله. ماذا عنك؟", CreatedAt: now.Add(-55 * time.Minute)},
		{ID: "m3", SenderID: "user_2", ReceiverID: ViewerID, Content: "بخير، كنت أريد استشارتك في تصميم.", CreatedAt: now.Add(-50 * time.Minute)},
	}

	notifications := []model.Notification{
		{ID: "n1", ActorID: "user_2", Type: model.NotificationLike, CreatedAt: now.Add(-15 * time.Minute)},
		{ID: "n2", ActorID: "u3", Type: model.NotificationComment, Content: "منشور رائع ومفيد جداً!", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "n3", ActorID: "u4", Type: model.NotificationFollow, CreatedAt: now.Add(-24 * time.Hour), Read: true},
	}

	return Data{
		Viewer:        viewer,
		Users:         append([]model.User{viewer}, others...),
		Posts:         posts,
		Messages:      messages,
		Notifications: notifications,
		Following:     []string{"user_2", "user_3"},
	}
}

// Load writes d into an empty store. Posts and notifications are inserted
// oldest first because the store puts each insert in front.
func Load(ctx context.Context, s repository.Store, d Data) error {
	for i := range d.Users {
		if err := s.Users().Save(ctx, &d.Users[i]); err != nil {
			return fmt.Errorf("seeding user %s: %w", d.Users[i].ID, err)
		}
	}
	for i := len(d.Posts) - 1; i >= 0; i-- {
		p := d.Posts[i].Clone()
		if err := s.Posts().Create(ctx, &p); err != nil {
			return fmt.Errorf("seeding post %s: %w", p.ID, err)
		}
	}
	for i := range d.Messages {
		m := d.Messages[i]
		if err := s.Messages().Append(ctx, &m); err != nil {
			return fmt.Errorf("seeding message %s: %w", m.ID, err)
		}
	}
	for i := len(d.Notifications) - 1; i >= 0; i-- {
		n := d.Notifications[i]
		if err := s.Notifications().Add(ctx, &n); err != nil {
			return fmt.Errorf("seeding notification %s: %w", n.ID, err)
		}
	}
	for _, id := range d.Following {
		if err := s.Graph().Follow(ctx, id); err != nil {
			return fmt.Errorf("seeding follow %s: %w", id, err)
		}
	}
	return nil
}

// Loader returns a function that resets s and loads a freshly built data set.
// build is called on every invocation so timestamps stay relative to the
// moment of the reset.
func Loader(s repository.Store, build func() Data) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := s.Reset(ctx); err != nil {
			return fmt.Errorf("resetting store: %w", err)
		}
		return Load(ctx, s, build())
	}
}
