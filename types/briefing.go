package types

import "time"

// Category is the fixed topic taxonomy the model is asked to use.
type Category string

const (
	CategoryLLMs          Category = "LLMs"
	CategoryImageAndVideo Category = "ImageAndVideo"
	CategoryHardware      Category = "Hardware"
	CategoryBusiness      Category = "Business"
	CategoryResearch      Category = "Research"
	CategoryRobotics      Category = "Robotics"
	CategorySystem        Category = "System"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryLLMs,
	CategoryImageAndVideo,
	CategoryHardware,
	CategoryBusiness,
	CategoryResearch,
	CategoryRobotics,
	CategorySystem,
}

// Bilingual holds an English and Chinese rendering of the same text.
type Bilingual struct {
	EN string `json:"en"`
	ZH string `json:"zh"`
}

// BriefingItem is the unit persisted and served by the read API.
type BriefingItem struct {
	ID          string    `json:"id"`
	Title       Bilingual `json:"title"`
	Summary     Bilingual `json:"summary"`
	Category    Category  `json:"category"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	ImpactScore int       `json:"impactScore"`
	Tags        []string  `json:"tags"`
	Date        time.Time `json:"date"`
}

// BriefingRecord is one durable row: the briefing produced for a half-day session.
type BriefingRecord struct {
	DateKey     string         `json:"date_key"`
	DisplayDate time.Time      `json:"display_date"`
	Content     []BriefingItem `json:"content"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DisplayDateLayout is the format of display dates in keys and query parameters.
const DisplayDateLayout = "2006-01-02"
