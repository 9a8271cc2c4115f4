package model

import "time"

// Course is a paid preparation program offered in the catalog.
type Course struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PriceINR    int      `json:"price_inr"`
	Duration    string   `json:"duration"`
	Students    int      `json:"students"`
	Lectures    int      `json:"lectures"`
	Rating      float64  `json:"rating"`
	Features    []string `json:"features"`
}

// VideoLecture is a recorded lecture in the study materials.
type VideoLecture struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Instructor   string `json:"instructor"`
	Duration     string `json:"duration"`
	Category     string `json:"category"`
	ThumbnailURL string `json:"thumbnail_url"`
	Views        int    `json:"views"`
	Completed    bool   `json:"completed"` // per learner
}

// StudyNote is a downloadable PDF in the study materials.
type StudyNote struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Pages     int    `json:"pages"`
	Size      string `json:"size"`
	Downloads int    `json:"downloads"`
}

// Materials is everything shown on the study materials page.
type Materials struct {
	Videos []VideoLecture `json:"videos"`
	Notes  []StudyNote    `json:"notes"`
}

// ContactMessage is a message sent through the contact form.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
