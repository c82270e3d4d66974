package testutil

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
)

var (
	// User1 logs in UTC.
	User1 = entity.User{
		Base:     entity.Base{ID: "user1"},
		Name:     "user1",
		Timezone: "UTC",
	}

	// User2 logs in Asia/Tokyo, 9 hours ahead of UTC.
	User2 = entity.User{
		Base:     entity.Base{ID: "user2"},
		Name:     "user2",
		Timezone: "Asia/Tokyo",
	}

	// User3 has a timezone which cannot be loaded.
	User3 = entity.User{
		Base:     entity.Base{ID: "user3"},
		Name:     "user3",
		Timezone: "Mars/Olympus_Mons",
	}

	Users = []*entity.User{&User1, &User2, &User3}
)

// CreateFixtureDb inserts the fixture users into the database of ctx.
func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
}

func InsertUsers(ctx context.Context) {
	for _, u := range Users {
		user := *u
		if err := xcontext.DB(ctx).Create(&user).Error; err != nil {
			panic(err)
		}
	}
}

// InsertClubMember makes the user a member of the club.
func InsertClubMember(ctx context.Context, clubID, userID string) {
	err := xcontext.DB(ctx).Create(&entity.ClubMember{ClubID: clubID, UserID: userID}).Error
	if err != nil {
		panic(err)
	}
}
