package main

import (
	"fmt"
	"log/slog"

	"github.com/pavelanni/testprep/internal/model"
	"github.com/pavelanni/testprep/internal/store"
)

var defaultCourses = []model.Course{
	{
		Title:       "CAT Preparation Course",
		Description: "Complete preparation for Common Admission Test with expert guidance and comprehensive study material.",
		PriceINR:    24999,
		Duration:    "12 months",
		Students:    2500,
		Lectures:    150,
		Rating:      4.8,
		Features:    []string{"Video Lectures", "Mock Tests", "Study Material", "Doubt Clearing"},
	},
	{
		Title:       "IPMAT Mastery Program",
		Description: "Intensive preparation for IIM Indore IPMAT with focus on quantitative aptitude and verbal ability.",
		PriceINR:    19999,
		Duration:    "10 months",
		Students:    1800,
		Lectures:    120,
		Rating:      4.7,
		Features:    []string{"Live Classes", "Practice Tests", "Personal Mentor", "Study Notes"},
	},
	{
		Title:       "CLAT Complete Course",
		Description: "Comprehensive CLAT preparation covering all sections with detailed analysis and practice.",
		PriceINR:    22999,
		Duration:    "12 months",
		Students:    2200,
		Lectures:    140,
		Rating:      4.9,
		Features:    []string{"Video Lessons", "Weekly Tests", "Legal Reasoning", "GK Updates"},
	},
	{
		Title:       "CAT + IPMAT Combo",
		Description: "Get the best of both worlds with our comprehensive combo package at a special price.",
		PriceINR:    39999,
		Duration:    "12 months",
		Students:    1500,
		Lectures:    200,
		Rating:      4.8,
		Features:    []string{"All CAT Content", "All IPMAT Content", "Extra Mock Tests", "Priority Support"},
	},
	{
		Title:       "MBA Entrance Foundation",
		Description: "Foundation course for MBA aspirants covering basics of quantitative, verbal, and logical reasoning.",
		PriceINR:    14999,
		Duration:    "6 months",
		Students:    3000,
		Lectures:    80,
		Rating:      4.6,
		Features:    []string{"Beginner Friendly", "Concept Building", "Practice Sets", "Progress Reports"},
	},
	{
		Title:       "Advanced Problem Solving",
		Description: "Advanced level problem-solving techniques for CAT, IPMAT, and other competitive exams.",
		PriceINR:    17999,
		Duration:    "8 months",
		Students:    1200,
		Lectures:    100,
		Rating:      4.9,
		Features:    []string{"Advanced Topics", "Tricks & Tips", "Time Management", "Strategy Sessions"},
	},
}

var defaultVideos = []model.VideoLecture{
	{Title: "Quantitative Aptitude - Number Systems", Instructor: "Prof. Rajesh Kumar", Duration: "45 mins", Category: "Quantitative",
		ThumbnailURL: "https://images.unsplash.com/photo-1509228468518-180dd4864904?w=400", Views: 1250},
	{Title: "Verbal Ability - Reading Comprehension", Instructor: "Dr. Priya Sharma", Duration: "38 mins", Category: "Verbal",
		ThumbnailURL: "https://images.unsplash.com/photo-1456513080510-7bf3a84b82f8?w=400", Views: 980},
	{Title: "Logical Reasoning - Puzzles & Seating", Instructor: "Prof. Anil Mehta", Duration: "52 mins", Category: "Logical",
		ThumbnailURL: "https://images.unsplash.com/photo-1516321318423-f06f85e504b3?w=400", Views: 1100},
	{Title: "Data Interpretation - Tables & Charts", Instructor: "Prof. Rajesh Kumar", Duration: "42 mins", Category: "Quantitative",
		ThumbnailURL: "https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=400", Views: 890},
	{Title: "Verbal Ability - Para Jumbles", Instructor: "Dr. Priya Sharma", Duration: "35 mins", Category: "Verbal",
		ThumbnailURL: "https://images.unsplash.com/photo-1455390582262-044cdead277a?w=400", Views: 760},
	{Title: "Quantitative Aptitude - Geometry Basics", Instructor: "Prof. Anil Mehta", Duration: "48 mins", Category: "Quantitative",
		ThumbnailURL: "https://images.unsplash.com/photo-1635070041078-e363dbe005cb?w=400", Views: 1050},
}

var defaultNotes = []model.StudyNote{
	{Title: "Complete Quantitative Aptitude Notes", Subject: "Mathematics", Pages: 150, Size: "12 MB", Downloads: 2500},
	{Title: "Verbal Ability Comprehensive Guide", Subject: "English", Pages: 120, Size: "8 MB", Downloads: 2200},
	{Title: "Logical Reasoning Practice Sets", Subject: "Logic", Pages: 80, Size: "6 MB", Downloads: 1900},
	{Title: "Data Interpretation Shortcuts", Subject: "Mathematics", Pages: 60, Size: "4 MB", Downloads: 1800},
	{Title: "GK & Current Affairs - Monthly", Subject: "General Knowledge", Pages: 40, Size: "3 MB", Downloads: 3000},
	{Title: "Previous Year Papers Collection", Subject: "All Subjects", Pages: 200, Size: "15 MB", Downloads: 2800},
}

// seedContent fills empty course and study material tables.
func seedContent(db *store.Store) error {
	courses, err := db.CourseCount()
	if err != nil {
		return err
	}
	if courses == 0 {
		for _, c := range defaultCourses {
			if _, err := db.CreateCourse(c); err != nil {
				return fmt.Errorf("create course %q: %w", c.Title, err)
			}
		}
		slog.Info("seeded courses", "count", len(defaultCourses))
	}

	materials, err := db.MaterialCount()
	if err != nil {
		return err
	}
	if materials > 0 {
		return nil
	}
	for _, v := range defaultVideos {
		if _, err := db.CreateVideoLecture(v); err != nil {
			return fmt.Errorf("create video %q: %w", v.Title, err)
		}
	}
	for _, n := range defaultNotes {
		if _, err := db.CreateStudyNote(n); err != nil {
			return fmt.Errorf("create note %q: %w", n.Title, err)
		}
	}
	slog.Info("seeded study materials", "videos", len(defaultVideos), "notes", len(defaultNotes))
	return nil
}
