package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/pavelanni/testprep/internal/assessment"
	"github.com/pavelanni/testprep/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testBank(t *testing.T, n int) *assessment.Bank {
	t.Helper()
	items := make([]assessment.Item, n)
	for i := range items {
		items[i] = assessment.Item{Prompt: "Q", Options: []string{"a", "b", "c", "d"}, Correct: i % 4}
	}
	b, err := assessment.NewBank(items)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	return b
}

func insertTestBank(t *testing.T, s *Store, n int) int64 {
	t.Helper()
	id, err := s.InsertBank("bank", "test.yaml", testBank(t, n))
	if err != nil {
		t.Fatalf("InsertBank: %v", err)
	}
	return id
}

func insertTestUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  "Test " + username,
		PasswordHash: "hash",
		Role:         model.UserRoleStudent,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

func submittedReport(t *testing.T, bank *assessment.Bank, answers map[int]int) assessment.Report {
	t.Helper()
	a, err := assessment.Start(bank)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for item, opt := range answers {
		if err := a.SelectAnswer(item, opt); err != nil {
			t.Fatalf("SelectAnswer: %v", err)
		}
	}
	if err := a.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	rep, err := a.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	return rep
}

func TestBankCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.BankCount()
	if err != nil {
		t.Fatalf("BankCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 banks, got %d", count)
	}

	id := insertTestBank(t, s, 3)
	rec, err := s.GetBank(id)
	if err != nil {
		t.Fatalf("GetBank: %v", err)
	}
	if rec.Name != "bank" || rec.Source != "test.yaml" {
		t.Errorf("unexpected bank record %+v", rec)
	}
	if len(rec.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(rec.Items))
	}
	if rec.Items[2].Correct != 2 {
		t.Errorf("expected item 2 correct=2, got %d", rec.Items[2].Correct)
	}

	b, err := s.LoadBank(id)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if b.Len() != 3 {
		t.Errorf("expected bank of 3, got %d", b.Len())
	}

	_, err = s.GetBank(9999)
	if err != sql.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}

	banks, err := s.ListBanks()
	if err != nil {
		t.Fatalf("ListBanks: %v", err)
	}
	if len(banks) != 1 {
		t.Errorf("expected 1 bank, got %d", len(banks))
	}
}

func TestCatalog(t *testing.T) {
	s := newTestStore(t)
	bankID := insertTestBank(t, s, 5)

	tests := []model.TestInfo{
		{Title: "Weekly Test #14 - Logical Reasoning", Subject: "Logic", DurationMinutes: 60, MaxMarks: 100, BankID: bankID},
		{Title: "Weekly Test #15 - Data Interpretation", Subject: "Mathematics", DurationMinutes: 40, MaxMarks: 100,
			AvailableOn: "2025-11-10", Status: model.TestUpcoming, BankID: bankID},
	}
	var ids []int64
	for _, ti := range tests {
		id, err := s.CreateTest(ti)
		if err != nil {
			t.Fatalf("CreateTest: %v", err)
		}
		ids = append(ids, id)
	}

	got, err := s.GetTest(ids[0])
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if got.Status != model.TestAvailable {
		t.Errorf("expected default status available, got %q", got.Status)
	}
	if got.QuestionCount != 5 {
		t.Errorf("expected question count 5, got %d", got.QuestionCount)
	}

	list, err := s.ListTestsForUser(0)
	if err != nil {
		t.Fatalf("ListTestsForUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tests, got %d", len(list))
	}
	if list[1].Status != model.TestUpcoming {
		t.Errorf("expected upcoming, got %q", list[1].Status)
	}

	if err := s.UpdateTestStatus(ids[1], model.TestAvailable); err != nil {
		t.Fatalf("UpdateTestStatus: %v", err)
	}
	got, _ = s.GetTest(ids[1])
	if got.Status != model.TestAvailable {
		t.Errorf("expected available after update, got %q", got.Status)
	}

	count, err := s.TestCount()
	if err != nil {
		t.Fatalf("TestCount: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 tests, got %d", count)
	}
}

func TestArchiveAttempt(t *testing.T) {
	s := newTestStore(t)
	bank := testBank(t, 5)
	bankID, err := s.InsertBank("b", "", bank)
	if err != nil {
		t.Fatalf("InsertBank: %v", err)
	}
	testID, err := s.CreateTest(model.TestInfo{Title: "Mock", BankID: bankID})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	userID := insertTestUser(t, s, "learner@example.com")
	otherID := insertTestUser(t, s, "other@example.com")

	answers := map[int]int{0: 0, 1: 1, 2: 2, 3: 0}
	rep := submittedReport(t, bank, answers)
	started := time.Now().Add(-10 * time.Minute)
	rec := model.AttemptRecord{
		ID:          "attempt-1",
		UserID:      userID,
		TestID:      testID,
		StartedAt:   started,
		SubmittedAt: time.Now(),
		Answers:     answers,
		Report:      rep,
	}
	if err := s.ArchiveAttempt(rec); err != nil {
		t.Fatalf("ArchiveAttempt: %v", err)
	}
	if err := s.ArchiveAttempt(rec); err == nil {
		t.Error("expected duplicate archive to fail")
	}

	got, err := s.GetAttemptRecord("attempt-1")
	if err != nil {
		t.Fatalf("GetAttemptRecord: %v", err)
	}
	if got == nil {
		t.Fatal("expected attempt record")
	}
	if got.Report.ScorePercent != 60 {
		t.Errorf("expected score 60, got %f", got.Report.ScorePercent)
	}
	if got.Report.Counts != (assessment.Counts{Correct: 3, Incorrect: 1, Unanswered: 1}) {
		t.Errorf("unexpected counts %+v", got.Report.Counts)
	}
	if got.Answers[3] != 0 || len(got.Answers) != 4 {
		t.Errorf("unexpected answers %v", got.Answers)
	}
	if got.StartedAt.IsZero() {
		t.Error("expected started_at to be set")
	}

	missing, err := s.GetAttemptRecord("nope")
	if err != nil {
		t.Fatalf("GetAttemptRecord missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing attempt")
	}

	summaries, err := s.ListAttemptsForUser(userID)
	if err != nil {
		t.Fatalf("ListAttemptsForUser: %v", err)
	}
	if len(summaries) != 1 || summaries[0].TestTitle != "Mock" {
		t.Errorf("unexpected summaries %+v", summaries)
	}
	other, _ := s.ListAttemptsForUser(otherID)
	if len(other) != 0 {
		t.Errorf("expected no attempts for other user, got %d", len(other))
	}

	// The catalog now shows the test as completed for this user only.
	list, err := s.ListTestsForUser(userID)
	if err != nil {
		t.Fatalf("ListTestsForUser: %v", err)
	}
	if list[0].Status != model.TestCompleted || list[0].BestScore == nil || *list[0].BestScore != 60 {
		t.Errorf("expected completed with best 60, got %+v", list[0])
	}
	list, _ = s.ListTestsForUser(otherID)
	if list[0].Status != model.TestAvailable || list[0].BestScore != nil {
		t.Errorf("expected available for other user, got %+v", list[0])
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)

	id := insertTestUser(t, s, "  Learner@Example.com ")
	u, err := s.GetUserByUsername("learner@example.com")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("expected user %d, got %+v", id, u)
	}
	if !u.Active || u.Role != model.UserRoleStudent {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := s.CreateUser(model.User{Username: "LEARNER@example.com", PasswordHash: "x", Role: model.UserRoleStudent}); err == nil {
		t.Error("expected duplicate username to fail")
	}

	missing, err := s.GetUserByID(9999)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing user, got %v, %v", missing, err)
	}

	if err := s.UpdateDisplayName(id, "Asha"); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(id)
	if u.DisplayName != "Asha" || u.Active {
		t.Errorf("expected renamed inactive user, got %+v", u)
	}

	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	count, _ := s.UserCount()
	if len(users) != 1 || count != 1 {
		t.Errorf("expected 1 user, got %d/%d", len(users), count)
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "a@example.com")

	sess, err := s.CreateAuthSession(userID, time.Hour)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	got, err := s.GetAuthSession(sess.ID)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if got == nil || got.UserID != userID {
		t.Fatalf("expected session for user %d, got %+v", userID, got)
	}

	if err := s.DeleteAuthSession(sess.ID); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	got, _ = s.GetAuthSession(sess.ID)
	if got != nil {
		t.Error("expected revoked session to be gone")
	}

	expired, err := s.CreateAuthSession(userID, -time.Minute)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	got, _ = s.GetAuthSession(expired.ID)
	if got != nil {
		t.Error("expected expired session to be nil")
	}

	a, _ := s.CreateAuthSession(userID, time.Hour)
	b, _ := s.CreateAuthSession(userID, time.Hour)
	if err := s.DeleteUserSessions(userID); err != nil {
		t.Fatalf("DeleteUserSessions: %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		if got, _ := s.GetAuthSession(id); got != nil {
			t.Errorf("expected session %s revoked", id)
		}
	}

	if _, err := s.CreateAuthSession(userID, -time.Minute); err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	n, err := s.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired session removed, got %d", n)
	}
}

func TestKeyValue(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetValue(1, model.KeyProfile)
	if err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if ok {
		t.Error("expected missing key")
	}

	if err := s.SetValue(1, model.KeyProfile, `{"name":"A"}`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.SetValue(1, model.KeyProfile, `{"name":"B"}`); err != nil {
		t.Fatalf("SetValue overwrite: %v", err)
	}
	if err := s.SetValue(2, model.KeyProfile, `{"name":"C"}`); err != nil {
		t.Fatalf("SetValue other user: %v", err)
	}

	v, ok, _ := s.GetValue(1, model.KeyProfile)
	if !ok || v != `{"name":"B"}` {
		t.Errorf("expected overwritten value, got %q (%v)", v, ok)
	}

	if err := s.RemoveValue(1, model.KeyProfile); err != nil {
		t.Fatalf("RemoveValue: %v", err)
	}
	if err := s.RemoveValue(1, model.KeyProfile); err != nil {
		t.Fatalf("RemoveValue missing: %v", err)
	}
	_, ok, _ = s.GetValue(1, model.KeyProfile)
	if ok {
		t.Error("expected key removed")
	}
	v, ok, _ = s.GetValue(2, model.KeyProfile)
	if !ok || v != `{"name":"C"}` {
		t.Errorf("expected other user's value untouched, got %q", v)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	hash, err := s.GetImportedFileHash("/banks/weekly.yaml")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/banks/weekly.yaml", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	if err := s.SetImportedFileHash("/banks/weekly.yaml", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/banks/weekly.yaml")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}

func TestExportAllAttempts(t *testing.T) {
	s := newTestStore(t)
	bank := testBank(t, 2)
	bankID, _ := s.InsertBank("b", "", bank)
	testID, _ := s.CreateTest(model.TestInfo{Title: "Weekly", BankID: bankID})
	userID := insertTestUser(t, s, "x@example.com")

	for i, id := range []string{"a1", "a2"} {
		rep := submittedReport(t, bank, map[int]int{0: i})
		err := s.ArchiveAttempt(model.AttemptRecord{
			ID: id, UserID: userID, TestID: testID,
			StartedAt: time.Now(), SubmittedAt: time.Now(),
			Answers: map[int]int{0: i}, Report: rep,
		})
		if err != nil {
			t.Fatalf("ArchiveAttempt: %v", err)
		}
	}

	results, err := s.ExportAllAttempts()
	if err != nil {
		t.Fatalf("ExportAllAttempts: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].AttemptNumber != 1 || results[1].AttemptNumber != 2 {
		t.Errorf("unexpected attempt numbers %d, %d", results[0].AttemptNumber, results[1].AttemptNumber)
	}
	if results[0].ScorePercent != 50 || results[1].ScorePercent != 0 {
		t.Errorf("unexpected scores %f, %f", results[0].ScorePercent, results[1].ScorePercent)
	}
	if results[0].Username != "x@example.com" || results[0].TestTitle != "Weekly" {
		t.Errorf("unexpected result %+v", results[0])
	}
}

func TestSubjectProgress(t *testing.T) {
	s := newTestStore(t)
	bank := testBank(t, 2)
	bankID, err := s.InsertBank("b", "", bank)
	if err != nil {
		t.Fatalf("InsertBank: %v", err)
	}
	mathID, err := s.CreateTest(model.TestInfo{Title: "Quant", Subject: "Mathematics", BankID: bankID})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	englishID, err := s.CreateTest(model.TestInfo{Title: "Verbal", Subject: "English", BankID: bankID})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	userID := insertTestUser(t, s, "learner@example.com")
	otherID := insertTestUser(t, s, "other@example.com")

	archive := func(id string, testID int64, answers map[int]int) {
		t.Helper()
		err := s.ArchiveAttempt(model.AttemptRecord{
			ID:          id,
			UserID:      userID,
			TestID:      testID,
			StartedAt:   time.Now(),
			SubmittedAt: time.Now(),
			Answers:     answers,
			Report:      submittedReport(t, bank, answers),
		})
		if err != nil {
			t.Fatalf("ArchiveAttempt %s: %v", id, err)
		}
	}
	archive("m1", mathID, map[int]int{0: 0, 1: 1})
	archive("m2", mathID, map[int]int{0: 0})
	archive("e1", englishID, map[int]int{})

	got, err := s.SubjectProgressForUser(userID)
	if err != nil {
		t.Fatalf("SubjectProgressForUser: %v", err)
	}
	want := []model.SubjectProgress{
		{Subject: "English", Attempts: 1, AverageScore: 0},
		{Subject: "Mathematics", Attempts: 2, AverageScore: 75},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d subjects, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("subject %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	completed, err := s.CompletedTestCount(userID)
	if err != nil {
		t.Fatalf("CompletedTestCount: %v", err)
	}
	if completed != 2 {
		t.Errorf("expected 2 completed tests, got %d", completed)
	}

	other, err := s.SubjectProgressForUser(otherID)
	if err != nil {
		t.Fatalf("SubjectProgressForUser: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no progress for other user, got %+v", other)
	}
}

func TestCourses(t *testing.T) {
	s := newTestStore(t)

	count, err := s.CourseCount()
	if err != nil {
		t.Fatalf("CourseCount: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty course table, got %d", count)
	}

	_, err = s.CreateCourse(model.Course{
		Title:    "CAT Preparation Course",
		PriceINR: 24999,
		Duration: "12 months",
		Rating:   4.8,
		Features: []string{"Video Lectures", "Mock Tests"},
	})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if _, err := s.CreateCourse(model.Course{Title: "Foundation", PriceINR: 14999}); err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}

	courses, err := s.ListCourses()
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(courses) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(courses))
	}
	c := courses[0]
	if c.Title != "CAT Preparation Course" || c.PriceINR != 24999 || c.Rating != 4.8 {
		t.Errorf("unexpected course %+v", c)
	}
	if len(c.Features) != 2 || c.Features[1] != "Mock Tests" {
		t.Errorf("unexpected features %v", c.Features)
	}
	if courses[1].Features == nil || len(courses[1].Features) != 0 {
		t.Errorf("expected empty feature list, got %#v", courses[1].Features)
	}
}

func TestMaterials(t *testing.T) {
	s := newTestStore(t)

	videoID, err := s.CreateVideoLecture(model.VideoLecture{
		Title: "Number Systems", Instructor: "Prof. Rajesh Kumar", Duration: "45 mins", Views: 1250,
	})
	if err != nil {
		t.Fatalf("CreateVideoLecture: %v", err)
	}
	noteID, err := s.CreateStudyNote(model.StudyNote{
		Title: "Quant Notes", Subject: "Mathematics", Pages: 150, Size: "12 MB", Downloads: 2500,
	})
	if err != nil {
		t.Fatalf("CreateStudyNote: %v", err)
	}

	count, err := s.MaterialCount()
	if err != nil {
		t.Fatalf("MaterialCount: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 materials, got %d", count)
	}

	if err := s.RecordVideoView(videoID); err != nil {
		t.Fatalf("RecordVideoView: %v", err)
	}
	if err := s.RecordVideoView(999); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for unknown video, got %v", err)
	}
	videos, err := s.ListVideoLectures()
	if err != nil {
		t.Fatalf("ListVideoLectures: %v", err)
	}
	if len(videos) != 1 || videos[0].Views != 1251 {
		t.Errorf("unexpected videos %+v", videos)
	}

	note, err := s.RecordNoteDownload(noteID)
	if err != nil {
		t.Fatalf("RecordNoteDownload: %v", err)
	}
	if note.Downloads != 2501 {
		t.Errorf("expected 2501 downloads, got %d", note.Downloads)
	}
	if _, err := s.RecordNoteDownload(999); err != sql.ErrNoRows {
		t.Errorf("expected sql.ErrNoRows for unknown note, got %v", err)
	}
	notes, err := s.ListStudyNotes()
	if err != nil {
		t.Fatalf("ListStudyNotes: %v", err)
	}
	if len(notes) != 1 || notes[0].Size != "12 MB" {
		t.Errorf("unexpected notes %+v", notes)
	}
}

func TestContactMessages(t *testing.T) {
	s := newTestStore(t)

	for _, subject := range []string{"Fees", "Batches"} {
		_, err := s.CreateContactMessage(model.ContactMessage{
			Name: "Asha", Email: "asha@example.com", Subject: subject, Message: "Hello",
		})
		if err != nil {
			t.Fatalf("CreateContactMessage: %v", err)
		}
	}

	msgs, err := s.ListContactMessages()
	if err != nil {
		t.Fatalf("ListContactMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Subject != "Batches" {
		t.Errorf("expected newest first, got %q", msgs[0].Subject)
	}
	if msgs[0].CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}
