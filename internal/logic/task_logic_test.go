package logic

import (
	"errors"
	"testing"

	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/GANESH4511/Dataverse/internal/storage"
)

const testDomain = "https://cdn.example.com"

func TestCreateTask(t *testing.T) {
	db := newTestDB(t)
	logic := NewTaskLogic(db, storage.NewMapper(testDomain, "bucket"))
	owner := seedUser(t, db, "user-wallet")

	task, err := logic.CreateTask(owner.ID, CreateTaskInput{
		Title:       "  Label cats  ",
		Description: "boxes around every cat",
		Amount:      "1000000000",
		FileURL:     "https://bucket.s3.us-east-1.amazonaws.com/uploads/abc.zip",
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Title != "Label cats" || task.Amount != 1_000_000_000 || task.Status != model.TaskStatusPending {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.FileURL != testDomain+"/uploads/abc.zip" {
		t.Fatalf("FileURL = %q", task.FileURL)
	}
	if task.Description == nil || *task.Description != "boxes around every cat" {
		t.Fatalf("Description = %v", task.Description)
	}

	bare, err := logic.CreateTask(owner.ID, CreateTaskInput{Title: "t", Amount: "5", FileURL: "uploads/x.ZIP"})
	if err != nil {
		t.Fatalf("CreateTask(raw key) error = %v", err)
	}
	if bare.Description != nil || bare.FileURL != testDomain+"/uploads/x.ZIP" {
		t.Fatalf("unexpected task %+v", bare)
	}
}

func TestCreateTaskAmountSpellings(t *testing.T) {
	db := newTestDB(t)
	logic := NewTaskLogic(db, storage.NewMapper(testDomain, "bucket"))
	owner := seedUser(t, db, "user-wallet")

	tests := map[string]int64{
		"1e9":                 1_000_000_000,
		"1E9":                 1_000_000_000,
		"2.5e3":               2_500,
		"1000.0":              1_000,
		"9223372036854775807": 9_223_372_036_854_775_807,
	}
	for text, want := range tests {
		task, err := logic.CreateTask(owner.ID, CreateTaskInput{Title: "t", Amount: text, FileURL: "uploads/a.zip"})
		if err != nil {
			t.Fatalf("CreateTask(amount %s) error = %v", text, err)
		}
		if task.Amount != want {
			t.Errorf("CreateTask(amount %s) amount = %d, want %d", text, task.Amount, want)
		}
	}
}

func TestCreateTaskValidation(t *testing.T) {
	db := newTestDB(t)
	logic := NewTaskLogic(db, storage.NewMapper(testDomain, "bucket"))
	owner := seedUser(t, db, "user-wallet")

	tests := []struct {
		name string
		in   CreateTaskInput
		want string
	}{
		{"missing title", CreateTaskInput{Amount: "1", FileURL: "uploads/a.zip"}, "Title, amount, and fileUrl are required"},
		{"missing amount", CreateTaskInput{Title: "t", FileURL: "uploads/a.zip"}, "Title, amount, and fileUrl are required"},
		{"missing file", CreateTaskInput{Title: "t", Amount: "1"}, "Title, amount, and fileUrl are required"},
		{"zero amount", CreateTaskInput{Title: "t", Amount: "0", FileURL: "uploads/a.zip"}, "Amount must be a positive number"},
		{"negative amount", CreateTaskInput{Title: "t", Amount: "-3", FileURL: "uploads/a.zip"}, "Amount must be a positive number"},
		{"fractional amount", CreateTaskInput{Title: "t", Amount: "1.5", FileURL: "uploads/a.zip"}, "Amount must be a positive number"},
		{"not a number", CreateTaskInput{Title: "t", Amount: "ten", FileURL: "uploads/a.zip"}, "Amount must be a positive number"},
		{"fractional exponent", CreateTaskInput{Title: "t", Amount: "1.5e-1", FileURL: "uploads/a.zip"}, "Amount must be a positive number"},
		{"beyond int64", CreateTaskInput{Title: "t", Amount: "1e19", FileURL: "uploads/a.zip"}, "Amount must be a positive number"},
		{"wrong folder", CreateTaskInput{Title: "t", Amount: "1", FileURL: "submissions/a.zip"}, "Invalid file URL. Must be a ZIP file in uploads/ folder"},
		{"not zip", CreateTaskInput{Title: "t", Amount: "1", FileURL: "uploads/a.tar"}, "Invalid file URL. Must be a ZIP file in uploads/ folder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := logic.CreateTask(owner.ID, tt.in)
			var e *Error
			if !errors.As(err, &e) || e.Kind != KindValidation || e.Message != tt.want {
				t.Fatalf("CreateTask() error = %v, want validation %q", err, tt.want)
			}
		})
	}

	var count int64
	db.Model(&model.Task{}).Count(&count)
	if count != 0 {
		t.Fatalf("%d tasks stored by rejected requests", count)
	}
}

func TestCreateTaskWithoutDeliveryDomain(t *testing.T) {
	db := newTestDB(t)
	logic := NewTaskLogic(db, storage.NewMapper("", "bucket"))
	owner := seedUser(t, db, "user-wallet")

	_, err := logic.CreateTask(owner.ID, CreateTaskInput{Title: "t", Amount: "1", FileURL: "uploads/a.zip"})
	if KindOf(err) != KindInternal {
		t.Fatalf("CreateTask() error = %v, want internal", err)
	}
}

func TestListTasks(t *testing.T) {
	db := newTestDB(t)
	logic := NewTaskLogic(db, storage.NewMapper(testDomain, "bucket"))
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	w1 := seedWorker(t, db, "w1", 0, 0)
	w2 := seedWorker(t, db, "w2", 0, 0)

	t1 := seedTask(t, db, alice.ID, 100)
	t2 := seedTask(t, db, alice.ID, 200)
	seedTask(t, db, bob.ID, 300)

	for _, s := range []model.Submission{
		{TaskID: t1.ID, WorkerID: w1.ID, FileURL: "f"},
		{TaskID: t1.ID, WorkerID: w2.ID, FileURL: "f"},
		{TaskID: t2.ID, WorkerID: w2.ID, FileURL: "f"},
	} {
		s := s
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed submission: %v", err)
		}
	}

	owned, err := logic.ListTasksForOwner(alice.ID)
	if err != nil {
		t.Fatalf("ListTasksForOwner() error = %v", err)
	}
	if len(owned) != 2 {
		t.Fatalf("owner sees %d tasks, want 2", len(owned))
	}
	subs := map[string]int{}
	for _, task := range owned {
		subs[task.ID] = len(task.Submissions)
	}
	if subs[t1.ID] != 2 || subs[t2.ID] != 1 {
		t.Fatalf("submissions per task = %v", subs)
	}

	all, err := logic.ListAllTasks(w1.ID)
	if err != nil {
		t.Fatalf("ListAllTasks() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListAllTasks() returned %d tasks", len(all))
	}
	for _, s := range all {
		switch s.ID {
		case t1.ID:
			if s.SubmissionsCount != 2 || !s.HasSubmitted {
				t.Errorf("t1 summary = %+v", s)
			}
		case t2.ID:
			if s.SubmissionsCount != 1 || s.HasSubmitted {
				t.Errorf("t2 summary = %+v", s)
			}
		default:
			if s.SubmissionsCount != 0 || s.HasSubmitted {
				t.Errorf("t3 summary = %+v", s)
			}
		}
	}

	if _, err := logic.GetTask(t2.ID); err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if _, err := logic.GetTask("missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("GetTask(missing) error = %v", err)
	}
}
