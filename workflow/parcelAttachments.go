package workflow

import (
	"context"
	"encoding/base64"
	"fmt"

	"bitbucket.org/mmdatafocus/parcels_backend/models"
	"gorm.io/gorm"
)

// storeAttachments hands each payload to the file store and persists the
// returned content-addressed references for the parcel.
func storeAttachments(ctx context.Context, tx *gorm.DB, fileStore FileStore, inputs []*models.NewParcelAttachment, parcelId int) error {
	if len(inputs) == 0 {
		return nil
	}

	attachments := make([]models.ParcelAttachment, 0, len(inputs))
	for _, input := range inputs {
		data, err := base64.StdEncoding.DecodeString(input.Data)
		if err != nil {
			return fmt.Errorf("attachment %q: %w", input.FileName, err)
		}
		hash, err := fileStore.Add(ctx, data)
		if err != nil {
			return fmt.Errorf("attachment %q: %w", input.FileName, err)
		}
		attachments = append(attachments, models.ParcelAttachment{
			ParcelId: parcelId,
			Hash:     hash,
			Url:      fileStore.PublicURL(hash),
		})
	}

	return tx.Create(&attachments).Error
}
