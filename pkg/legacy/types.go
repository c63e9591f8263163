// Package legacy models the pre-migration FightPulse dataset: flat
// integer-keyed records with loosely typed columns, read from the JSON
// artifacts the SQL-dump extraction produces.
package legacy

// FighterRef is a fighter as embedded inside a legacy fight row. The
// legacy schema had no fighter table; names are denormalized onto every
// fight.
type FighterRef struct {
	FirstName Flex
	LastName  Flex
	Nickname  Flex
	Gender    Flex
}

// Fight is a denormalized legacy fight row.
type Fight struct {
	ID        int64 `json:"id"`
	Promotion Flex  `json:"promotion"`
	EventName Flex  `json:"eventname"`
	// Date is the event day as exported, expected YYYY-MM-DD but not
	// guaranteed parseable ("0000-00-00" occurs in the wild).
	Date Flex `json:"date"`

	Fighter1First    Flex `json:"f1fn"`
	Fighter1Last     Flex `json:"f1ln"`
	Fighter1Nickname Flex `json:"f1nn"`
	Fighter1Gender   Flex `json:"f1gender"`
	Fighter2First    Flex `json:"f2fn"`
	Fighter2Last     Flex `json:"f2ln"`
	Fighter2Nickname Flex `json:"f2nn"`
	Fighter2Gender   Flex `json:"f2gender"`

	WeightClass  Flex `json:"weightclass"`
	IsTitle      Flex `json:"istitle"`
	CardPosition Flex `json:"card"`

	Winner Flex `json:"winner"`
	Method Flex `json:"method"`
	Round  Flex `json:"round"`
	Time   Flex `json:"time"`

	Votes Flex `json:"votes"`
	Score Flex `json:"score"`

	Deleted Flex `json:"deleted"`
}

// Fighter1 returns the first fighter reference.
func (f *Fight) Fighter1() FighterRef {
	return FighterRef{
		FirstName: f.Fighter1First,
		LastName:  f.Fighter1Last,
		Nickname:  f.Fighter1Nickname,
		Gender:    f.Fighter1Gender,
	}
}

// Fighter2 returns the second fighter reference.
func (f *Fight) Fighter2() FighterRef {
	return FighterRef{
		FirstName: f.Fighter2First,
		LastName:  f.Fighter2Last,
		Nickname:  f.Fighter2Nickname,
		Gender:    f.Fighter2Gender,
	}
}

// User is a legacy user row. EmailHash is the hash column as stored;
// it is not trustworthy for shard lookup — derive the true key with
// UserShardKey(Email) instead.
type User struct {
	ID        int64 `json:"id"`
	Email     Flex  `json:"email"`
	Name      Flex  `json:"name"`
	EmailHash Flex  `json:"emailhash"`
	IsMedia   Flex  `json:"ismedia"`
}

// Rating is a legacy fight rating. The user is identified by email or
// email hash, whichever the export carried.
type Rating struct {
	ID        int64 `json:"id"`
	FightID   int64 `json:"fightid"`
	Email     Flex  `json:"email"`
	EmailHash Flex  `json:"emailhash"`
	Score     Flex  `json:"rating"`
	CreatedAt Flex  `json:"created"`
}

// Review is a legacy written fight review.
type Review struct {
	ID        int64 `json:"id"`
	FightID   int64 `json:"fightid"`
	Email     Flex  `json:"email"`
	EmailHash Flex  `json:"emailhash"`
	Title     Flex  `json:"title"`
	Body      Flex  `json:"review"`
	CreatedAt Flex  `json:"created"`
}

// ReviewUpvote is a legacy upvote on a review.
type ReviewUpvote struct {
	ID        int64 `json:"id"`
	ReviewID  int64 `json:"reviewid"`
	Email     Flex  `json:"email"`
	EmailHash Flex  `json:"emailhash"`
	CreatedAt Flex  `json:"created"`
}

// TagVote is a legacy tag applied by a user to a fight. TagID is a
// small integer from the fixed legacy taxonomy, but arrives loosely
// typed like everything else.
type TagVote struct {
	ID        int64 `json:"id"`
	FightID   int64 `json:"fightid"`
	TagID     Flex  `json:"tagid"`
	Email     Flex  `json:"email"`
	EmailHash Flex  `json:"emailhash"`
	CreatedAt Flex  `json:"created"`
}
