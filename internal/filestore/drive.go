package filestore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"fitLogAPI/internal/config"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	directLinkBase = "https://drive.google.com/uc?export=view&id="
)

// DriveStore keeps images in a shared Google Drive folder laid out as
// <root>/<user>_logs/<Workouts|Meals>/<timestamp>_<name>.
type DriveStore struct {
	svc    *drive.Service
	rootID string
}

// NewDriveStore uses the base64 service account key when set, otherwise the
// key file on disk.
func NewDriveStore(ctx context.Context, cfg config.DriveConfig) (*DriveStore, error) {
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("DRIVE_FOLDER_ID is not set")
	}

	var opt option.ClientOption
	if cfg.CredentialsJSON != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode GOOGLE_SERVICE_ACCOUNT_JSON: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("Drive: Initializing from GOOGLE_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(cfg.CredentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account file not found: %s, and GOOGLE_SERVICE_ACCOUNT_JSON is not set", cfg.CredentialsFile)
		}
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
		log.Printf("Drive: Initializing from local file: %s.", cfg.CredentialsFile)
	}

	svc, err := drive.NewService(ctx, opt, option.WithScopes(drive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("error creating drive client: %w", err)
	}
	return &DriveStore{svc: svc, rootID: cfg.FolderID}, nil
}

func (d *DriveStore) Put(ctx context.Context, obj Object) (Ref, error) {
	userID, err := d.ensureFolder(ctx, userFolder(obj.OwnerEmail), d.rootID)
	if err != nil {
		return Ref{}, err
	}
	parentID, err := d.ensureFolder(ctx, categoryFolder(obj.Category), userID)
	if err != nil {
		return Ref{}, err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	file, err := d.svc.Files.Create(&drive.File{
		Name:        uniqueName(obj.Name, time.Now()),
		Parents:     []string{parentID},
		Description: describe(obj),
	}).
		Media(bytes.NewReader(obj.Data), googleapi.ContentType(contentType)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return Ref{}, fmt.Errorf("failed to upload file: %w", err)
	}

	_, err = d.svc.Permissions.Create(file.Id, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		// an unshared copy is useless and a retry would upload another one
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if derr := d.Delete(cleanupCtx, file.Id); derr != nil {
			log.Printf("Drive: failed to remove unshared file %s: %v", file.Id, derr)
		}
		return Ref{}, fmt.Errorf("failed to share file: %w", err)
	}

	return Ref{FileID: file.Id, ViewURL: directLinkBase + file.Id}, nil
}

func (d *DriveStore) Delete(ctx context.Context, fileID string) error {
	if err := d.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// ensureFolder returns the id of the named folder under parentID, creating it
// when missing.
func (d *DriveStore) ensureFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(name), escapeQuery(parentID), folderMimeType)

	list, err := d.svc.Files.List().Q(q).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to search folder %s: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder, err := d.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return folder.Id, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
