package services

import (
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// authorize decides whether requesterID may see file. The owner always may.
// With allowPublic, anyone may see a public file and a denied request gets
// common.ErrorForbidden; without it, a foreign file looks absent.
func authorize(file *models.File, requesterID string, allowPublic bool) error {
	if requesterID != "" && file.UserID == requesterID {
		return nil
	}
	if !allowPublic {
		return common.ErrorNotFound
	}
	if file.IsPublic {
		return nil
	}
	return common.ErrorForbidden
}
