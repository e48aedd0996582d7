package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/dukerupert/bakehouse/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func jpegOfSize(n int) []byte {
	b := make([]byte, n)
	copy(b, []byte("\xFF\xD8\xFF\xE0"))
	return b
}

func newImageService(st storage.Storage, repo domain.ProductRepository) *ImageService {
	return NewImageService(st, repo, "", nil, nil)
}

func TestImageService_RejectsOversizeBeforeStorage(t *testing.T) {
	st := newMockStorage()
	svc := newImageService(st, newMockProductRepo())

	t.Run("declared size", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), ImageUpload{
			Filename: "big.jpg", ContentType: "image/jpeg", Size: 6 << 20,
			Content: bytes.NewReader(jpegOfSize(10)),
		})
		require.Error(t, err)
		assert.Equal(t, msgImageTooLarge, domain.GetValidationFields(err)[ImageField])
	})

	t.Run("actual bytes", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), ImageUpload{
			Filename: "big.jpg", ContentType: "image/jpeg",
			Content: bytes.NewReader(jpegOfSize(6 << 20)),
		})
		require.Error(t, err)
		assert.Equal(t, msgImageTooLarge, domain.GetValidationFields(err)[ImageField])
	})

	assert.Zero(t, st.putCount())
}

func TestImageService_AcceptsJPEGAndNamesUniquely(t *testing.T) {
	st := newMockStorage()
	svc := newImageService(st, newMockProductRepo())
	data := jpegOfSize(4 << 20)

	first, err := svc.Upload(context.Background(), ImageUpload{Filename: "cake.jpg", ContentType: "image/jpeg", Size: int64(len(data)), Content: bytes.NewReader(data)})
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), ImageUpload{Filename: "cake.jpg", ContentType: "image/jpeg", Size: int64(len(data)), Content: bytes.NewReader(data)})
	require.NoError(t, err)

	assert.NotEqual(t, first.URL, second.URL)
	assert.True(t, strings.HasPrefix(first.Path, "products/"))
	assert.True(t, strings.HasSuffix(first.Path, "-cake.jpg"))
	assert.Equal(t, "image/jpeg", first.ContentType)
	assert.Equal(t, int64(4<<20), first.Size)
}

func TestImageService_ContentType(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
		wantErr  bool
	}{
		{"declared png", "image/png", pngHeader, "image/png", false},
		{"declared with params", "image/jpeg; charset=binary", jpegOfSize(16), "image/jpeg", false},
		{"undeclared sniffed png", "", pngHeader, "image/png", false},
		{"octet-stream sniffed jpeg", "application/octet-stream", jpegOfSize(16), "image/jpeg", false},
		{"undeclared text", "", []byte("hello world"), "", true},
		{"declared gif", "image/gif", []byte("GIF89a"), "", true},
		{"declared pdf", "application/pdf", []byte("%PDF-1.4"), "", true},
	}

	svc := newImageService(newMockStorage(), newMockProductRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ct, err := svc.Validate(ImageUpload{Filename: "x", ContentType: tt.declared, Content: bytes.NewReader(tt.data)})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, msgImageType, domain.GetValidationFields(err)[ImageField])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ct)
		})
	}
}

func TestImageService_EmptyUpload(t *testing.T) {
	svc := newImageService(newMockStorage(), newMockProductRepo())

	_, _, err := svc.Validate(ImageUpload{Filename: "x.jpg"})
	assert.Equal(t, msgImageRequired, domain.GetValidationFields(err)[ImageField])

	_, _, err = svc.Validate(ImageUpload{Filename: "x.jpg", Content: bytes.NewReader(nil)})
	assert.Equal(t, msgImageRequired, domain.GetValidationFields(err)[ImageField])
}

func TestImageService_GeneratePath(t *testing.T) {
	svc := newImageService(newMockStorage(), newMockProductRepo())
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }
	svc.random = bytes.NewReader([]byte{0xab, 0xcd, 0xef})

	got, err := svc.GeneratePath("My Cake (1).JPG")
	require.NoError(t, err)
	assert.Equal(t, "products/1700000000123-abcdef-My_Cake__1_.JPG", got)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"cake.jpg":               "cake.jpg",
		"sticky buns.png":        "sticky_buns.png",
		"crème brûlée.webp":      "cr_me_br_l_e.webp",
		"../../etc/passwd":       "passwd",
		`C:\Users\jen\roll.jpeg`: "roll.jpeg",
		"":                       "image",
		"..":                     "image",
		"a-b.c_d":                "a-b.c_d",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestImageService_RetriesNameCollision(t *testing.T) {
	st := newMockStorage()
	calls := 0
	st.putFunc = func(key string) error {
		calls++
		if calls == 1 {
			return storage.ErrObjectExists(key)
		}
		return nil
	}
	svc := newImageService(st, newMockProductRepo())

	img, err := svc.Upload(context.Background(), ImageUpload{Filename: "a.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	assert.NotEmpty(t, img.URL)
	assert.Equal(t, 2, st.putCount())
}

func TestImageService_StorageFailure(t *testing.T) {
	st := newMockStorage()
	st.putFunc = func(string) error { return storage.ErrUploadFailed(errors.New("bucket down")) }
	svc := newImageService(st, newMockProductRepo())

	_, err := svc.Upload(context.Background(), ImageUpload{Filename: "a.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Equal(t, "Image upload failed. Please try again.", domain.ErrorMessage(err))
	assert.Equal(t, 1, st.putCount())
}

func TestImageService_UploadGuard(t *testing.T) {
	svc := newImageService(newMockStorage(), newMockProductRepo())

	release, ok := svc.uploads.Acquire("new-form:image")
	require.True(t, ok)

	_, err := svc.Upload(context.Background(), ImageUpload{Key: "new-form:image", Filename: "a.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	assert.ErrorIs(t, err, ErrUploadBusy)

	_, err = svc.Upload(context.Background(), ImageUpload{Key: "other-form:image", Filename: "a.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	assert.NoError(t, err)

	release()
	_, err = svc.Upload(context.Background(), ImageUpload{Key: "new-form:image", Filename: "a.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	assert.NoError(t, err)
}

func createProduct(t *testing.T, repo domain.ProductRepository, name string, mutate func(*domain.ProductInput)) *domain.Product {
	t.Helper()
	in := domain.DefaultProductInput()
	in.Name = name
	if mutate != nil {
		mutate(&in)
	}
	p, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

func TestImageService_AttachToProduct(t *testing.T) {
	ctx := context.Background()
	repo := newMockProductRepo()
	st := newMockStorage()
	svc := newImageService(st, repo)
	p := createProduct(t, repo, "Rolls", nil)

	got, err := svc.AttachToProduct(ctx, p.ID, ImageUpload{Filename: "rolls.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	require.NotNil(t, got.ImageURL)
	assert.True(t, strings.HasPrefix(*got.ImageURL, "/uploads/products/"))

	ok, err := st.Exists(ctx, strings.TrimPrefix(*got.ImageURL, "/uploads/"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImageService_AttachUploadFailureKeepsPriorImage(t *testing.T) {
	ctx := context.Background()
	repo := newMockProductRepo()
	st := newMockStorage()
	st.putFunc = func(string) error { return storage.ErrUploadFailed(errors.New("timeout")) }
	svc := newImageService(st, repo)

	prior := "/uploads/products/old.jpg"
	p := createProduct(t, repo, "Rolls", func(in *domain.ProductInput) { in.ImageURL = &prior })

	_, err := svc.AttachToProduct(ctx, p.ID, ImageUpload{Filename: "new.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	require.Error(t, err)

	fresh, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.ImageURL)
	assert.Equal(t, prior, *fresh.ImageURL)
}

func TestImageService_AttachMissingProduct(t *testing.T) {
	st := newMockStorage()
	svc := newImageService(st, newMockProductRepo())

	_, err := svc.AttachToProduct(context.Background(), uuid.New(), ImageUpload{Filename: "a.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Zero(t, st.putCount())
}

func TestImageService_AttachRecordFailureRemovesObject(t *testing.T) {
	repo := newMockProductRepo()
	st := newMockStorage()
	svc := newImageService(st, repo)
	p := createProduct(t, repo, "Rolls", nil)

	repo.setImageFunc = func(context.Context, uuid.UUID, *string) (*domain.Product, error) {
		return nil, domain.Unavailable(errors.New("db down"), "product.set_image", "Could not save the product image.")
	}

	_, err := svc.AttachToProduct(context.Background(), p.ID, ImageUpload{Filename: "a.png", ContentType: "image/png", Content: bytes.NewReader(pngHeader)})
	require.Error(t, err)
	require.Len(t, st.deletes, 1)
	assert.Empty(t, st.objects)
}

func TestImageService_RemoveKeepsObject(t *testing.T) {
	ctx := context.Background()
	repo := newMockProductRepo()
	st := newMockStorage()
	svc := newImageService(st, repo)

	img := "/uploads/products/keep.jpg"
	st.objects["products/keep.jpg"] = []byte("x")
	p := createProduct(t, repo, "Rolls", func(in *domain.ProductInput) { in.ImageURL = &img })

	got, err := svc.RemoveFromProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ImageURL)
	assert.Empty(t, st.deletes)
	assert.Contains(t, st.objects, "products/keep.jpg")

	_, err = svc.RemoveFromProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
