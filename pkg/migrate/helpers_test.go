package migrate

import "github.com/fightpulse/migrate-cli/pkg/legacy"

// legacyFight builds a minimal legacy fight row for tests.
func legacyFight(id int64, promotion, event, date, f1First, f1Last, f2First, f2Last string) legacy.Fight {
	return legacy.Fight{
		ID:            id,
		Promotion:     legacy.NewFlex(promotion),
		EventName:     legacy.NewFlex(event),
		Date:          legacy.NewFlex(date),
		Fighter1First: legacy.NewFlex(f1First),
		Fighter1Last:  legacy.NewFlex(f1Last),
		Fighter2First: legacy.NewFlex(f2First),
		Fighter2Last:  legacy.NewFlex(f2Last),
	}
}

func legacyUser(id int64, email, name string) legacy.User {
	return legacy.User{
		ID:    id,
		Email: legacy.NewFlex(email),
		Name:  legacy.NewFlex(name),
	}
}

func legacyRating(id, fightID int64, email, score string) legacy.Rating {
	return legacy.Rating{
		ID:      id,
		FightID: fightID,
		Email:   legacy.NewFlex(email),
		Score:   legacy.NewFlex(score),
	}
}

func legacyReview(id, fightID int64, email, title, body string) legacy.Review {
	return legacy.Review{
		ID:      id,
		FightID: fightID,
		Email:   legacy.NewFlex(email),
		Title:   legacy.NewFlex(title),
		Body:    legacy.NewFlex(body),
	}
}

func legacyUpvote(id, reviewID int64, email string) legacy.ReviewUpvote {
	return legacy.ReviewUpvote{
		ID:       id,
		ReviewID: reviewID,
		Email:    legacy.NewFlex(email),
	}
}

func legacyTagVote(id, fightID int64, tagID, email string) legacy.TagVote {
	return legacy.TagVote{
		ID:      id,
		FightID: fightID,
		TagID:   legacy.NewFlex(tagID),
		Email:   legacy.NewFlex(email),
	}
}
