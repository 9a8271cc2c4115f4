package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pavelanni/testprep/internal/model"
)

// CreateCourse adds a course to the catalog.
func (s *Store) CreateCourse(c model.Course) (int64, error) {
	if c.Features == nil {
		c.Features = []string{}
	}
	features, err := json.Marshal(c.Features)
	if err != nil {
		return 0, fmt.Errorf("marshal features: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO courses (title, description, price_inr, duration, students, lectures, rating, features)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.Description, c.PriceINR, c.Duration, c.Students, c.Lectures, c.Rating, string(features),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListCourses returns all courses in insertion order.
func (s *Store) ListCourses() ([]model.Course, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, price_inr, duration, students, lectures, rating, features
		 FROM courses ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Course
	for rows.Next() {
		var (
			c        model.Course
			features string
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.PriceINR, &c.Duration,
			&c.Students, &c.Lectures, &c.Rating, &features); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(features), &c.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features of course %d: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CourseCount returns the number of courses.
func (s *Store) CourseCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM courses`).Scan(&count)
	return count, err
}

// CreateVideoLecture adds a lecture to the study materials.
func (s *Store) CreateVideoLecture(v model.VideoLecture) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO video_lectures (title, instructor, duration, category, thumbnail_url, views)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.Title, v.Instructor, v.Duration, v.Category, v.ThumbnailURL, v.Views,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListVideoLectures returns all lectures. Completed is left false; it is a
// per-learner flag kept outside this table.
func (s *Store) ListVideoLectures() ([]model.VideoLecture, error) {
	rows, err := s.db.Query(
		`SELECT id, title, instructor, duration, category, thumbnail_url, views
		 FROM video_lectures ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.VideoLecture
	for rows.Next() {
		var v model.VideoLecture
		if err := rows.Scan(&v.ID, &v.Title, &v.Instructor, &v.Duration, &v.Category, &v.ThumbnailURL, &v.Views); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RecordVideoView bumps a lecture's view count. It returns sql.ErrNoRows for
// an unknown lecture.
func (s *Store) RecordVideoView(id int64) error {
	res, err := s.db.Exec(`UPDATE video_lectures SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateStudyNote adds a downloadable note to the study materials.
func (s *Store) CreateStudyNote(n model.StudyNote) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO study_notes (title, subject, pages, size, downloads) VALUES (?, ?, ?, ?, ?)`,
		n.Title, n.Subject, n.Pages, n.Size, n.Downloads,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const noteColumns = `id, title, subject, pages, size, downloads`

func scanStudyNote(row rowScanner) (model.StudyNote, error) {
	var n model.StudyNote
	err := row.Scan(&n.ID, &n.Title, &n.Subject, &n.Pages, &n.Size, &n.Downloads)
	return n, err
}

// ListStudyNotes returns all notes.
func (s *Store) ListStudyNotes() ([]model.StudyNote, error) {
	rows, err := s.db.Query(`SELECT ` + noteColumns + ` FROM study_notes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.StudyNote
	for rows.Next() {
		n, err := scanStudyNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// RecordNoteDownload bumps a note's download count and returns the updated
// note, or sql.ErrNoRows for an unknown note.
func (s *Store) RecordNoteDownload(id int64) (model.StudyNote, error) {
	if _, err := s.db.Exec(`UPDATE study_notes SET downloads = downloads + 1 WHERE id = ?`, id); err != nil {
		return model.StudyNote{}, err
	}
	return scanStudyNote(s.db.QueryRow(`SELECT `+noteColumns+` FROM study_notes WHERE id = ?`, id))
}

// MaterialCount returns the number of lectures plus notes.
func (s *Store) MaterialCount() (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM video_lectures) + (SELECT COUNT(*) FROM study_notes)`,
	).Scan(&count)
	return count, err
}
