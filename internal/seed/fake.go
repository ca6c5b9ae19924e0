package seed

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/sakif/meydan/internal/model"
)

// FakeOptions controls the demo population added on top of the fixed set.
type FakeOptions struct {
	Users        int    // extra users to generate; 0 disables
	PostsPerUser int    // posts per generated user; defaults to 2
	Seed         uint64 // 0 picks a random seed
}

// WithFakes returns a copy of d extended with generated users and posts.
// Generated posts are older than every fixed post, so the fixed feed head
// stays the same regardless of how many extras are added.
func WithFakes(d Data, now time.Time, opts FakeOptions) Data {
	if opts.Users <= 0 {
		return d
	}
	if opts.PostsPerUser <= 0 {
		opts.PostsPerUser = 2
	}
	f := gofakeit.New(opts.Seed)

	out := d
	out.Users = append([]model.User(nil), d.Users...)
	out.Posts = append([]model.Post(nil), d.Posts...)

	oldest := now.Add(-48 * time.Hour)
	var generated []model.Post
	for i := 0; i < opts.Users; i++ {
		id := fmt.Sprintf("fake_%d", i+1)
		out.Users = append(out.Users, model.User{
			ID:        id,
			Name:      f.Name(),
			Avatar:    avatar(f.Number(100, 1000)),
			Followers: f.Number(0, 5000),
			Following: f.Number(0, 500),
			ProfileDetails: model.ProfileDetails{
				Username: f.Username(),
				Bio:      f.HipsterSentence(),
				Country:  f.Country(),
				Job:      f.JobTitle(),
				Email:    f.Email(),
			},
		})
		for j := 0; j < opts.PostsPerUser; j++ {
			generated = append(generated, model.Post{
				ID:        fmt.Sprintf("%s_p%d", id, j+1),
				AuthorID:  id,
				Content:   f.HipsterSentence(),
				Likes:     f.Number(0, 300),
				Comments:  []model.Comment{},
				Shares:    f.Number(0, 40),
				CreatedAt: f.DateRange(oldest.AddDate(0, 0, -30), oldest),
			})
		}
	}

	sortNewestFirst(generated)
	out.Posts = append(out.Posts, generated...)
	return out
}

func sortNewestFirst(posts []model.Post) {
	// insertion sort; the slice is small and this keeps equal timestamps stable
	for i := 1; i < len(posts); i++ {
		for j := i; j > 0 && posts[j].CreatedAt.After(posts[j-1].CreatedAt); j-- {
			posts[j], posts[j-1] = posts[j-1], posts[j]
		}
	}
}
