package utils

import (
	"context"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const imageFolder = "products"

// ImageService handles product image hosting on Cloudinary
type ImageService struct {
	cld *cloudinary.Cloudinary
}

// NewImageService creates an ImageService from a CLOUDINARY_URL style URL
func NewImageService(cloudinaryURL string) (*ImageService, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &ImageService{cld: cld}, nil
}

// UploadImage uploads an image (base64 data URI or remote URL) and returns
// its secure URL
func (is *ImageService) UploadImage(ctx context.Context, image string) (string, error) {
	resp, err := is.cld.Upload.Upload(ctx, image, uploader.UploadParams{Folder: imageFolder})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}

// DeleteImage removes a previously uploaded image given its delivery URL.
// The public id is the folder plus the URL's base name without extension.
func (is *ImageService) DeleteImage(ctx context.Context, imageURL string) error {
	base := path.Base(imageURL)
	publicID := imageFolder + "/" + strings.TrimSuffix(base, path.Ext(base))
	_, err := is.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}
