package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// UploadedImage is what the image-storage collaborator hands back.
type UploadedImage struct {
	URL      string
	PublicID string
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &CloudinaryService{cld: cld}, nil
}

// UploadFile pushes one file to Cloudinary and returns its URL and public ID.
// Callers treat failures as best-effort: a failed image never fails the
// submission it was attached to.
func (s *CloudinaryService) UploadFile(ctx context.Context, file multipart.File, folder string) (UploadedImage, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return UploadedImage{}, fmt.Errorf("failed to read file: %w", err)
	}

	res, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return UploadedImage{}, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return UploadedImage{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// UploadFileFromHeader opens and uploads a multipart file header.
func (s *CloudinaryService) UploadFileFromHeader(ctx context.Context, fh *multipart.FileHeader, folder string) (UploadedImage, error) {
	file, err := fh.Open()
	if err != nil {
		return UploadedImage{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.UploadFile(ctx, file, folder)
}
