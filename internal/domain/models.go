package domain

import "time"

// Game tunables carried over from the live balance sheet. Rewards and costs
// are expressed in diamonds unless noted.
const (
	MaxHearts           = 5
	HeartRegenInterval  = 60 * time.Second
	XPPerLevel          = 500
	CardXPBase          = 1000
	CardGrowthPerLevel  = 0.05
	BoosterXP           = 500
	HeartRefillCost     = 30
	QuizDiamondReward   = 25
	BattleDiamondReward = 50
)

// Rarity is an ordered tier; Weight feeds directly into combat scoring.
type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
	RarityDivine    Rarity = "Divine"
	RarityMythic    Rarity = "Mythic"
)

var rarityOrder = map[Rarity]int{
	RarityCommon:    1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
	RarityDivine:    5,
	RarityMythic:    6,
}

// Weight returns the rarity's ordinal (Common=1 .. Mythic=6). Unknown
// rarities weigh as Common so malformed generated content never zeroes a score.
func (r Rarity) Weight() int {
	if w, ok := rarityOrder[r]; ok {
		return w
	}
	return 1
}

// Valid reports whether r is one of the known tiers.
func (r Rarity) Valid() bool {
	_, ok := rarityOrder[r]
	return ok
}

// Rank is a display title derived purely from player level.
type Rank string

const (
	RankRookie  Rank = "Rookie"
	RankOtaku   Rank = "Otaku"
	RankShinobi Rank = "Shinobi"
	RankLegend  Rank = "Legend"
	RankMythic  Rank = "Mythique"
	RankGod     Rank = "Dieu"
)

// RankThreshold maps a minimum level to a rank. Thresholds are scanned in
// ascending order; the last entry whose MinLevel <= level wins.
type RankThreshold struct {
	MinLevel int
	Rank     Rank
}

// RankThresholds is the canonical ascending threshold table.
var RankThresholds = []RankThreshold{
	{MinLevel: 0, Rank: RankRookie},
	{MinLevel: 10, Rank: RankOtaku},
	{MinLevel: 25, Rank: RankShinobi},
	{MinLevel: 50, Rank: RankLegend},
	{MinLevel: 80, Rank: RankMythic},
}

// Stats is a card stat block. BaseStats are immutable after creation; the
// derived Stats are recomputed from base and level on every level change.
type Stats struct {
	Power        int `json:"power"`
	Speed        int `json:"speed"`
	Intelligence int `json:"intelligence"`
	Energy       int `json:"energy"`
}

// AnimeCard is a collectible unit. Stats must never be mutated independently
// of BaseStats and Level.
type AnimeCard struct {
	ID            string `json:"id"`
	CharacterName string `json:"characterName"`
	Anime         string `json:"anime"`
	Rarity        Rarity `json:"rarity"`
	BaseStats     Stats  `json:"baseStats"`
	Stats         Stats  `json:"stats"`
	ImageURL      string `json:"imageUrl"`
	Level         int    `json:"level"`
	CurrentXP     int    `json:"currentXp"`
	XPToNextLevel int    `json:"xpToNextLevel"`
}

// QuizType distinguishes how a question is presented and judged.
type QuizType string

const (
	QuizTypeImage     QuizType = "image"
	QuizTypeFusion    QuizType = "fusion"
	QuizTypeScrambled QuizType = "scrambled"
	QuizTypeInput     QuizType = "input"
)

// Quiz is one trivia question. Ephemeral: buffered, consumed front to back,
// never persisted.
type Quiz struct {
	ID              string   `json:"id"`
	Type            QuizType `json:"type"`
	Difficulty      int      `json:"difficulty"`
	Images          []string `json:"images"`
	Question        string   `json:"question"`
	Choices         []string `json:"choices,omitempty"`
	Answer          string   `json:"answer"`
	AcceptedAnswers []string `json:"acceptedAnswers,omitempty"`
	XP              int      `json:"xp"`
}

// FreeText reports whether the quiz is judged as free text input rather than
// a choice pick.
func (q Quiz) FreeText() bool {
	return q.Type == QuizTypeInput || len(q.Choices) == 0
}

// LeaderboardEntry is one row of the rankings screen. Bot rows are generated
// once as a static comparison snapshot; the live player row is merged in only
// at view time.
type LeaderboardEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	XP    int    `json:"xp"`
	Rank  Rank   `json:"rank"`
	IsBot bool   `json:"isBot"`
}

// Settings are the player-tunable knobs.
type Settings struct {
	Volume               float64 `json:"volume"`
	VFXEnabled           bool    `json:"vfxEnabled"`
	NotificationsEnabled bool    `json:"notificationsEnabled"`
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	Volume               *float64 `json:"volume,omitempty"`
	VFXEnabled           *bool    `json:"vfxEnabled,omitempty"`
	NotificationsEnabled *bool    `json:"notificationsEnabled,omitempty"`
}

// PersonalityResult is the archetype produced by the personality test.
type PersonalityResult struct {
	Name        string `json:"name"`
	Anime       string `json:"anime"`
	Description string `json:"description"`
	Rarity      Rarity `json:"rarity"`
	ImageURL    string `json:"imageUrl"`
}

// PersonalityOption is one answer of a personality question, tagged with the
// trait it signals.
type PersonalityOption struct {
	Text  string `json:"text"`
	Trait string `json:"trait"`
}

// PersonalityQuestion is one step of the personality test.
type PersonalityQuestion struct {
	ID       string              `json:"id"`
	Question string              `json:"question"`
	Options  []PersonalityOption `json:"options"`
}

// AchievementType selects which counter an achievement tracks.
type AchievementType string

const (
	AchievementLevel    AchievementType = "level"
	AchievementDiamonds AchievementType = "diamonds"
	AchievementQuizzes  AchievementType = "quizzes"
	AchievementXP       AchievementType = "xp"
)

// Achievement is a static definition; unlock state lives on the user.
type Achievement struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Requirement int             `json:"requirement"`
	Type        AchievementType `json:"type"`
}

// OfferContent describes what a shop bundle grants once settled.
type OfferContent struct {
	Diamonds         int    `json:"diamonds,omitempty"`
	Boosters         int    `json:"boosters,omitempty"`
	Cards            int    `json:"cards,omitempty"`
	GuaranteedRarity Rarity `json:"guaranteedRarity,omitempty"`
	ThemeID          string `json:"themeId,omitempty"`
}

// ShopOffer is a purchasable bundle. Price is in diamonds for soft-currency
// offers and in gateway currency units for real-money offers.
type ShopOffer struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Price       float64      `json:"price"`
	IsRealMoney bool         `json:"isRealMoney"`
	Description string       `json:"description"`
	Content     OfferContent `json:"content"`
}

// UserState is the single root aggregate. It is owned exclusively by the game
// engine; nothing outside the engine mutates it.
type UserState struct {
	Nickname             string             `json:"nickname"`
	Level                int                `json:"level"`
	TotalXP              int                `json:"totalXp"`
	XP                   int                `json:"xp"`
	Hearts               int                `json:"hearts"`
	LastHeartUpdateTime  time.Time          `json:"lastHeartUpdateTime"`
	Diamonds             int                `json:"diamonds"`
	Rank                 Rank               `json:"rank"`
	CompletedQuizzes     []string           `json:"completedQuizzes"`
	PersonalityMatch     *PersonalityResult `json:"personalityMatch,omitempty"`
	HasBattlePass        bool               `json:"hasBattlePass"`
	Theme                string             `json:"theme"`
	UnlockedThemes       []string           `json:"unlockedThemes"`
	Leaderboard          []LeaderboardEntry `json:"leaderboard"`
	UnlockedAchievements []string           `json:"unlockedAchievements"`
	Inventory            []AnimeCard        `json:"inventory"`
	Boosters             int                `json:"boosters"`
	Settings             Settings           `json:"settings"`
}

// DefaultUserState is the fresh-install snapshot.
func DefaultUserState(now time.Time) UserState {
	return UserState{
		Nickname:             "USER_NODE_01",
		Level:                1,
		Hearts:               MaxHearts,
		LastHeartUpdateTime:  now,
		Diamonds:             50,
		Rank:                 RankRookie,
		CompletedQuizzes:     []string{},
		Theme:                "default",
		UnlockedThemes:       []string{"default", "neon"},
		Leaderboard:          []LeaderboardEntry{},
		UnlockedAchievements: []string{},
		Inventory:            []AnimeCard{},
		Boosters:             5,
		Settings: Settings{
			Volume:               0.5,
			VFXEnabled:           true,
			NotificationsEnabled: true,
		},
	}
}

// Clone returns a deep copy so callers never alias engine-owned slices.
func (u UserState) Clone() UserState {
	out := u
	out.CompletedQuizzes = append([]string(nil), u.CompletedQuizzes...)
	out.UnlockedThemes = append([]string(nil), u.UnlockedThemes...)
	out.UnlockedAchievements = append([]string(nil), u.UnlockedAchievements...)
	out.Leaderboard = append([]LeaderboardEntry(nil), u.Leaderboard...)
	out.Inventory = append([]AnimeCard(nil), u.Inventory...)
	if u.PersonalityMatch != nil {
		match := *u.PersonalityMatch
		out.PersonalityMatch = &match
	}
	return out
}

// CardByID returns a pointer into the inventory, or nil when absent.
func (u *UserState) CardByID(id string) *AnimeCard {
	for i := range u.Inventory {
		if u.Inventory[i].ID == id {
			return &u.Inventory[i]
		}
	}
	return nil
}
