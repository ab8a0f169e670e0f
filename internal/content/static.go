package content

import (
	"fmt"
	"net/url"

	"otaku-arena-service/internal/domain"
)

// topAnime is the themed rotation used to steer question generation; the
// batch for progression level N draws from topAnime[(N-1) % len].
var topAnime = []string{
	"Attack on Titan", "Death Note", "Naruto", "One Piece", "Dragon Ball",
	"Jujutsu Kaisen", "Demon Slayer", "Fullmetal Alchemist", "Hunter x Hunter",
	"Bleach", "Berserk", "Evangelion", "Code Geass", "Steins;Gate",
	"Vinland Saga", "JoJo's Bizarre Adventure", "Chainsaw Man", "Tokyo Ghoul",
	"Akira", "Cyberpunk Edgerunners", "My Hero Academia", "Black Clover",
	"Fairy Tail", "Sword Art Online", "Re:Zero", "No Game No Life", "Dr Stone",
	"Fire Force", "Blue Lock", "Haikyuu", "Monster", "Psycho-Pass",
	"Gurren Lagann", "Fate/Zero", "Made in Abyss", "Tokyo Revengers",
	"Erased", "Parasyte", "Devilman Crybaby", "Dororo", "Samurai Champloo",
	"Cowboy Bebop", "Trigun", "Black Lagoon", "Violet Evergarden",
	"Mushoku Tensei", "Overlord", "The Promised Neverland", "Hellsing Ultimate",
	"Inuyasha", "Yu Yu Hakusho", "Soul Eater", "Assassination Classroom",
	"Tower of God", "Seraph of the End", "Baki", "Kengan Ashura",
	"Record of Ragnarok", "Future Diary", "Beastars", "Ajin", "Pluto",
	"Odd Taxi", "Ranking of Kings", "Banana Fish", "Kaiji", "Hajime no Ippo",
	"Initial D", "Megalo Box", "Slam Dunk", "One Punch Man", "Mob Psycho 100",
	"Classroom of the Elite", "Highschool of the Dead", "Afro Samurai",
	"Kuroko no Basket", "Great Pretender", "Bungo Stray Dogs", "Solo Leveling",
}

// AnimeForLevel returns the rotation theme for a progression level.
func AnimeForLevel(level int) string {
	if level < 1 {
		level = 1
	}
	return topAnime[(level-1)%len(topAnime)]
}

// PlaceholderImage returns a deterministic placeholder art URL for a seed,
// used whenever the image capability is unavailable.
func PlaceholderImage(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/450", url.PathEscape(seed))
}

// FallbackQuizzes is the static trivia set served when generation is
// exhausted. The session must always have renderable questions.
func FallbackQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:         "quiz_001",
			Type:       domain.QuizTypeImage,
			Difficulty: 1,
			Images:     []string{"https://picsum.photos/seed/naruto_leaf/800/450"},
			Question:   "Dans Naruto, quel est le titre donné au chef du village caché de la Feuille (Konoha) ?",
			Choices:    []string{"Kazekage", "Hokage", "Raikage", "Mizukage"},
			Answer:     "Hokage",
			XP:         50,
		},
		{
			ID:              "quiz_002",
			Type:            domain.QuizTypeImage,
			Difficulty:      2,
			Images:          []string{"https://picsum.photos/seed/onepiece_fruit/800/450"},
			Question:        "Quel est le véritable nom du Fruit du Démon mangé par Monkey D. Luffy ?",
			Choices:         []string{"Gomu Gomu no Mi", "Hito Hito no Mi, Modèle: Nika", "Mera Mera no Mi", "Hana Hana no Mi"},
			Answer:          "Hito Hito no Mi, Modèle: Nika",
			AcceptedAnswers: []string{"Hito Hito no Mi Model Nika", "Sun God Nika"},
			XP:              75,
		},
		{
			ID:         "quiz_003",
			Type:       domain.QuizTypeImage,
			Difficulty: 3,
			Images:     []string{"https://picsum.photos/seed/jujutsu_domain/800/450"},
			Question:   "Comment s'appelle l'Extension du Territoire de Satoru Gojo ?",
			Choices:    []string{"Reliquaire Maléfique", "Vide Infini", "Jardin des Ombres Chimériques", "Auto-incarnation de la Perfection"},
			Answer:     "Vide Infini",
			XP:         100,
		},
		{
			ID:         "quiz_004",
			Type:       domain.QuizTypeImage,
			Difficulty: 2,
			Images:     []string{"https://picsum.photos/seed/aot_basement/800/450"},
			Question:   "Dans L'Attaque des Titans, quel est le secret caché dans la cave du père d'Eren ?",
			Choices:    []string{"L'existence des murs", "L'origine des Titans", "L'existence d'une civilisation extérieure", "Le pouvoir du Titan Colossal"},
			Answer:     "L'existence d'une civilisation extérieure",
			XP:         80,
		},
		{
			ID:         "quiz_005",
			Type:       domain.QuizTypeImage,
			Difficulty: 4,
			Images:     []string{"https://picsum.photos/seed/hxh_nen/800/450"},
			Question:   "Dans Hunter x Hunter, à quelle catégorie de Nen appartient Kurapika lorsqu'il utilise ses 'Scarlet Eyes' ?",
			Choices:    []string{"Matérialisation", "Renforcement", "Spécialisation", "Manipulation"},
			Answer:     "Spécialisation",
			XP:         150,
		},
	}
}

// Achievements is the static achievement table.
func Achievements() []domain.Achievement {
	return []domain.Achievement{
		{ID: "acc_1", Title: "Aspirant", Description: "Atteindre le niveau 5", Icon: "🌱", Requirement: 5, Type: domain.AchievementLevel},
		{ID: "acc_2", Title: "Chasseur de Primes", Description: "Gagner 1000 diamants", Icon: "💰", Requirement: 1000, Type: domain.AchievementDiamonds},
		{ID: "acc_3", Title: "Expert des Archives", Description: "Compléter 50 quiz", Icon: "📚", Requirement: 50, Type: domain.AchievementQuizzes},
		{ID: "acc_4", Title: "Dieu de l'Anime", Description: "Atteindre 100,000 XP total", Icon: "⚡", Requirement: 100000, Type: domain.AchievementXP},
	}
}

// FallbackPersonalityQuestions is the seed personality test used when
// generation fails.
func FallbackPersonalityQuestions() []domain.PersonalityQuestion {
	return []domain.PersonalityQuestion{
		{
			ID:       "p_1",
			Question: "Quelle est ta philosophie de combat ?",
			Options: []domain.PersonalityOption{
				{Text: "La puissance brute avant tout.", Trait: "strength"},
				{Text: "L'intelligence et la stratégie.", Trait: "intelligence"},
				{Text: "L'instinct et l'improvisation.", Trait: "instinct"},
				{Text: "Éviter le combat à tout prix.", Trait: "pacifist"},
			},
		},
		{
			ID:       "p_2",
			Question: "Qu'est-ce qui te motive à te lever le matin ?",
			Options: []domain.PersonalityOption{
				{Text: "Protéger ceux qui me sont chers.", Trait: "protective"},
				{Text: "Devenir le meilleur dans mon domaine.", Trait: "ambitious"},
				{Text: "Découvrir de nouveaux horizons.", Trait: "curious"},
				{Text: "La quête de vengeance ou de justice.", Trait: "justice"},
			},
		},
		{
			ID:       "p_3",
			Question: "Face à une injustice flagrante, tu...",
			Options: []domain.PersonalityOption{
				{Text: "Interviens immédiatement sans réfléchir.", Trait: "heroic"},
				{Text: "Prépare un plan pour démanteler le système.", Trait: "strategist"},
				{Text: "Attends le bon moment pour frapper.", Trait: "assassin"},
				{Text: "Hésites car tu as peur des conséquences.", Trait: "realistic"},
			},
		},
		{
			ID:       "p_4",
			Question: "Ton type d'environnement idéal ?",
			Options: []domain.PersonalityOption{
				{Text: "Une métropole cyberpunk futuriste.", Trait: "tech"},
				{Text: "Un village paisible en pleine nature.", Trait: "zen"},
				{Text: "Un champ de bataille médiéval.", Trait: "warrior"},
				{Text: "Une école mystérieuse.", Trait: "magic"},
			},
		},
		{
			ID:       "p_5",
			Question: "Quel est ton plus grand défaut ?",
			Options: []domain.PersonalityOption{
				{Text: "Mon arrogance.", Trait: "pride"},
				{Text: "Ma naïveté.", Trait: "innocent"},
				{Text: "Mon manque d'empathie.", Trait: "cold"},
				{Text: "Ma paresse.", Trait: "lazy"},
			},
		},
	}
}

// Themes lists the unlockable interface themes.
func Themes() []string {
	return []string{"default", "neon", "blue_horizon", "blood_shinobi", "void_infinity"}
}

// ShopOffers is the static storefront.
func ShopOffers() []domain.ShopOffer {
	offers := []domain.ShopOffer{
		{ID: "draw_rare", Title: "Tirage Rare", Price: 100, Description: "Une unité Rare garantie"},
		{ID: "draw_epic", Title: "Tirage Épique", Price: 250, Description: "Une unité Épique garantie"},
		{ID: "draw_legendary", Title: "Tirage Légendaire", Price: 600, Description: "Une unité Légendaire garantie"},
		{ID: "booster_1", Title: "Booster", Price: 50, Description: "Incrémentation de 500 XP par booster"},
		{ID: "booster_5", Title: "Pack de 5 Boosters", Price: 200, Description: "Cinq boosters d'un coup"},
		{ID: "starter", Title: "Pack Initié", Price: 4.99, IsRealMoney: true, Description: "500 diamants + thème Blue Horizon + unité Rare"},
		{ID: "elite", Title: "Pack Élite", Price: 14.99, IsRealMoney: true, Description: "2000 diamants + thème Blood Shinobi + unité Épique"},
		{ID: "god", Title: "Pack Divin", Price: 49.99, IsRealMoney: true, Description: "10000 diamants + thème Void Infinity + unité Divine"},
	}
	offers[0].Content.Cards = 1
	offers[0].Content.GuaranteedRarity = domain.RarityRare
	offers[1].Content.Cards = 1
	offers[1].Content.GuaranteedRarity = domain.RarityEpic
	offers[2].Content.Cards = 1
	offers[2].Content.GuaranteedRarity = domain.RarityLegendary
	offers[3].Content.Boosters = 1
	offers[4].Content.Boosters = 5
	offers[5].Content.Diamonds = 500
	offers[5].Content.ThemeID = "blue_horizon"
	offers[5].Content.Cards = 1
	offers[5].Content.GuaranteedRarity = domain.RarityRare
	offers[6].Content.Diamonds = 2000
	offers[6].Content.ThemeID = "blood_shinobi"
	offers[6].Content.Cards = 1
	offers[6].Content.GuaranteedRarity = domain.RarityEpic
	offers[7].Content.Diamonds = 10000
	offers[7].Content.ThemeID = "void_infinity"
	offers[7].Content.Cards = 1
	offers[7].Content.GuaranteedRarity = domain.RarityDivine
	return offers
}
