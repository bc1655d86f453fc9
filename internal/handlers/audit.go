package handlers

import (
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"gorm.io/gorm"
)

// logSignatureAction appends one row to the signature audit trail. It is
// called inside the same transaction as the transition it records, so a
// transition never commits without its audit entry.
func logSignatureAction(tx *gorm.DB, contract *models.Contract, action, actor, ip, userAgent, detail string) error {
	if actor == "" {
		actor = "system"
	}
	entry := models.SignatureLog{
		ContractID: contract.ID,
		ProjectID:  contract.ProjectID,
		Action:     action,
		Actor:      actor,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Detail:     detail,
	}
	return tx.Create(&entry).Error
}

// loadSignatureTrail returns the full audit history for a contract, oldest
// first.
func loadSignatureTrail(db *gorm.DB, contractID uint) ([]models.SignatureLog, error) {
	var trail []models.SignatureLog
	if err := db.Where("contract_id = ?", contractID).Order("created_at asc, id asc").Find(&trail).Error; err != nil {
		return nil, err
	}
	return trail, nil
}
