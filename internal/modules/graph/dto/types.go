package dto

import "time"

type IngredientOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

type PairingOutput struct {
	Ingredient IngredientOutput `json:"ingredient"`
	Score      float64          `json:"score"`
}

type PairingsOutput struct {
	Ingredient IngredientOutput `json:"ingredient"`
	K          int              `json:"k"`
	Pairings   []PairingOutput  `json:"pairings"`
}

type StatsOutput struct {
	Ingredients int       `json:"ingredients"`
	K           int       `json:"k"`
	LoadedAt    time.Time `json:"loaded_at"`
}
