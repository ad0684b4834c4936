// Package filestore uploads activity images to an external object store.
package filestore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"fitLogAPI/internal/types/activity"
)

// Object is an image plus the metadata used to place it.
type Object struct {
	OwnerEmail  string
	Category    activity.Category
	Title       string
	Name        string
	ContentType string
	Data        []byte
}

// Ref identifies a stored file.
type Ref struct {
	FileID  string `json:"file_id"`
	ViewURL string `json:"view_url"`
}

type Store interface {
	Put(ctx context.Context, obj Object) (Ref, error)
	Delete(ctx context.Context, fileID string) error
}

// userFolder is "<local part of email>_logs".
func userFolder(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		local = "anonymous"
	}
	return local + "_logs"
}

func categoryFolder(c activity.Category) string {
	if c == activity.CategoryWorkout {
		return "Workouts"
	}
	return "Meals"
}

// uniqueName prefixes the original file name with an upload timestamp.
func uniqueName(name string, now time.Time) string {
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		name = "image.jpg"
	}
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	return ts + "_" + name
}

func describe(obj Object) string {
	if obj.Title == "" {
		return fmt.Sprintf("FitLog %s log", obj.Category)
	}
	return fmt.Sprintf("FitLog %s log: %s", obj.Category, obj.Title)
}
