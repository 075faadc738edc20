// Package gdrive is the file-storage capability: cohort folders, content
// uploads, and sharing on the institution's connected Google Drive.
//
// Folder provisioning is best-effort at cohort/institution creation;
// content upload treats a missing folder as a hard dependency error.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrNotConfigured means the institution has no usable Google credential.
var ErrNotConfigured = errors.New("google drive is not connected for this institution")

// IsPermissionDenied reports an authorization rejection from the Drive API.
func IsPermissionDenied(err error) bool {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return ge.Code == 401 || ge.Code == 403
	}
	return false
}

// FolderRef identifies a created folder.
type FolderRef struct {
	ID   string
	Link string
}

// FileRef identifies an uploaded file.
type FileRef struct {
	ID   string
	Link string
}

// Service is the storage capability consumed by cohort provisioning and
// content distribution.
type Service interface {
	CreateFolder(ctx context.Context, name, parentID string) (FolderRef, error)
	UploadFile(ctx context.Context, folderID, name, mimeType string, body io.Reader) (FileRef, error)
	ShareWithUsers(ctx context.Context, fileID string, emails []string) error
}

// Factory builds a Service scoped to one institution's Google account.
type Factory struct {
	ClientID     string
	ClientSecret string

	// Override, when set, is returned from ForAccount regardless of
	// credentials. Tests use it to substitute a Fake.
	Override Service
}

// ForAccount returns a Service acting as the account behind refreshToken.
func (f *Factory) ForAccount(refreshToken string) (Service, error) {
	if f != nil && f.Override != nil {
		return f.Override, nil
	}
	if f == nil || f.ClientID == "" || f.ClientSecret == "" || refreshToken == "" {
		return nil, ErrNotConfigured
	}
	cfg := &oauth2.Config{
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}
	return &googleDrive{cfg: cfg, refreshToken: refreshToken}, nil
}

type googleDrive struct {
	cfg          *oauth2.Config
	refreshToken string
}

func (g *googleDrive) client(ctx context.Context) (*drive.Service, error) {
	ts := g.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: g.refreshToken})
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("drive service init: %w", err)
	}
	return svc, nil
}

func (g *googleDrive) CreateFolder(ctx context.Context, name, parentID string) (FolderRef, error) {
	svc, err := g.client(ctx)
	if err != nil {
		return FolderRef{}, err
	}
	meta := &drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	created, err := svc.Files.Create(meta).Fields("id", "webViewLink").Context(ctx).Do()
	if err != nil {
		return FolderRef{}, fmt.Errorf("drive folder create: %w", err)
	}
	return FolderRef{ID: created.Id, Link: created.WebViewLink}, nil
}

func (g *googleDrive) UploadFile(ctx context.Context, folderID, name, mimeType string, body io.Reader) (FileRef, error) {
	svc, err := g.client(ctx)
	if err != nil {
		return FileRef{}, err
	}
	meta := &drive.File{
		Name:     name,
		Parents:  []string{folderID},
		MimeType: mimeType,
	}
	created, err := svc.Files.Create(meta).
		Media(body, googleapi.ContentType(mimeType)).
		Fields("id", "webViewLink").
		Context(ctx).Do()
	if err != nil {
		return FileRef{}, fmt.Errorf("drive file upload: %w", err)
	}
	return FileRef{ID: created.Id, Link: created.WebViewLink}, nil
}

func (g *googleDrive) ShareWithUsers(ctx context.Context, fileID string, emails []string) error {
	svc, err := g.client(ctx)
	if err != nil {
		return err
	}
	for _, email := range emails {
		perm := &drive.Permission{
			Type:         "user",
			Role:         "reader",
			EmailAddress: email,
		}
		if _, err := svc.Permissions.Create(fileID, perm).SendNotificationEmail(false).Context(ctx).Do(); err != nil {
			return fmt.Errorf("drive share with %s: %w", email, err)
		}
	}
	return nil
}

// Fake is an in-memory Service for tests.
type Fake struct {
	Folders   []string
	Uploads   []string
	Shared    map[string][]string
	CreateErr error
	UploadErr error
	ShareErr  error
}

func (f *Fake) CreateFolder(ctx context.Context, name, parentID string) (FolderRef, error) {
	if f.CreateErr != nil {
		return FolderRef{}, f.CreateErr
	}
	f.Folders = append(f.Folders, name)
	id := fmt.Sprintf("folder-%d", len(f.Folders))
	return FolderRef{ID: id, Link: "https://drive.example/" + id}, nil
}

func (f *Fake) UploadFile(ctx context.Context, folderID, name, mimeType string, body io.Reader) (FileRef, error) {
	if f.UploadErr != nil {
		return FileRef{}, f.UploadErr
	}
	f.Uploads = append(f.Uploads, name)
	id := fmt.Sprintf("file-%d", len(f.Uploads))
	return FileRef{ID: id, Link: "https://drive.example/" + id}, nil
}

func (f *Fake) ShareWithUsers(ctx context.Context, fileID string, emails []string) error {
	if f.ShareErr != nil {
		return f.ShareErr
	}
	if f.Shared == nil {
		f.Shared = make(map[string][]string)
	}
	f.Shared[fileID] = append(f.Shared[fileID], emails...)
	return nil
}
