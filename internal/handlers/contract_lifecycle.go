package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nobhad/no-bhad-codes-sub012/models"

	"gorm.io/gorm"
)

// How long a signing link stays valid after it is issued.
const signatureLinkTTL = 7 * 24 * time.Hour

// errSignPreconditionFailed is internal to submitSignature: the conditional
// update matched no row and the real cause must be re-read.
var errSignPreconditionFailed = errors.New("sign precondition failed")

// newSignatureToken mints an opaque bearer credential for one signing
// request. 32 random bytes, hex encoded; never derived from contract
// identity.
func newSignatureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate signature token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// mirrorContractStatus keeps the legacy projects.contract_status column in
// sync. The contracts row is the source of truth; the mirror is written in
// the same transaction because project list pages still read it.
func mirrorContractStatus(tx *gorm.DB, projectID uint, status string) error {
	return tx.Model(&models.Project{}).Where("id = ?", projectID).
		Update("contract_status", status).Error
}

// requestSignature transitions a contract to "sent" and issues a fresh
// signing token. Re-requesting on a contract with an outstanding token
// overwrites the token, so previously emailed links become invalid
// immediately.
func requestSignature(db *gorm.DB, contract *models.Contract, actor, ip, userAgent string) (string, time.Time, error) {
	switch contract.Status {
	case models.ContractStatusDraft, models.ContractStatusSent, models.ContractStatusViewed:
	case models.ContractStatusSigned:
		return "", time.Time{}, errAlreadySigned
	default:
		return "", time.Time{}, errContractNotPending
	}

	token, err := newSignatureToken()
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	expiresAt := now.Add(signatureLinkTTL)

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":                 models.ContractStatusSent,
			"signature_token":        token,
			"signature_requested_at": now,
			"signature_expires_at":   expiresAt,
		}
		if contract.SentAt == nil {
			updates["sent_at"] = now
		}
		if err := tx.Model(&models.Contract{}).Where("id = ?", contract.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := mirrorContractStatus(tx, contract.ProjectID, models.ContractStatusSent); err != nil {
			return err
		}
		return logSignatureAction(tx, contract, models.SignatureActionRequested, actor, ip, userAgent,
			fmt.Sprintf("signing link issued, valid until %s", expiresAt.Format(time.RFC3339)))
	})
	if err != nil {
		return "", time.Time{}, err
	}

	contract.Status = models.ContractStatusSent
	contract.SignatureToken = &token
	contract.SignatureRequestedAt = &now
	contract.SignatureExpiresAt = &expiresAt
	return token, expiresAt, nil
}

// findContractByToken resolves a signing token to its contract. Expiry is
// evaluated lazily here: a token past its deadline marks the contract
// expired (clearing the token fields in the same update) and reports
// errExpiredLink. The guard holds even before the write-back lands because
// every state-changing update re-checks expires_at in its WHERE clause.
func findContractByToken(db *gorm.DB, token string) (*models.Contract, error) {
	if token == "" {
		return nil, errInvalidLink
	}

	var contract models.Contract
	err := db.Preload("Project").Preload("Client").
		Where("signature_token = ?", token).First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidLink
		}
		return nil, err
	}

	if contract.SignatureExpiresAt == nil || time.Now().After(*contract.SignatureExpiresAt) {
		if err := expireContract(db, &contract); err != nil {
			return nil, err
		}
		return nil, errExpiredLink
	}

	return &contract, nil
}

// expireContract performs the lazy sent/viewed → expired write-back. The
// WHERE clause re-checks the token so a concurrent signing that already
// consumed it wins.
func expireContract(db *gorm.DB, contract *models.Contract) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND signature_token = ? AND signed_at IS NULL", contract.ID, contract.SignatureToken).
			Updates(map[string]interface{}{
				"status":                 models.ContractStatusExpired,
				"signature_token":        nil,
				"signature_requested_at": nil,
				"signature_expires_at":   nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := mirrorContractStatus(tx, contract.ProjectID, models.ContractStatusExpired); err != nil {
			return err
		}
		return logSignatureAction(tx, contract, models.SignatureActionExpired, "system", "", "",
			"signing link passed its expiry date")
	})
}

// markViewed records the first time the signing link is opened. Re-fetching
// is idempotent: the conditional update only fires on sent → viewed, so the
// state never regresses and viewed_at is never re-stamped.
func markViewed(db *gorm.DB, contract *models.Contract, ip, userAgent string) error {
	if contract.Status != models.ContractStatusSent {
		return nil
	}

	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status = ?", contract.ID, models.ContractStatusSent).
			Updates(map[string]interface{}{
				"status":    models.ContractStatusViewed,
				"viewed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		contract.Status = models.ContractStatusViewed
		contract.ViewedAt = &now
		if err := mirrorContractStatus(tx, contract.ProjectID, models.ContractStatusViewed); err != nil {
			return err
		}
		actor := ""
		if contract.Client != nil {
			actor = contract.Client.Email
		}
		return logSignatureAction(tx, contract, models.SignatureActionViewed, actor, ip, userAgent, "")
	})
}

// submitSignature performs the sent/viewed → signed transition. The whole
// precondition (token matches, token not expired, signer fields empty)
// lives in the WHERE clause of a single conditional update, so two
// concurrent submissions with the same token produce exactly one success:
// the loser matches no row and is re-classified from the committed state.
// The token is cleared in the same update that sets the signer fields, so
// there is no window where a valid token coexists with signed status.
func submitSignature(db *gorm.DB, contract *models.Contract, token, signerName, signatureImage, ip, userAgent string) (time.Time, error) {
	now := time.Now()

	signerEmail := ""
	if contract.Client != nil {
		signerEmail = contract.Client.Email
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND signature_token = ? AND signature_expires_at > ? AND signed_at IS NULL",
				contract.ID, token, now).
			Updates(map[string]interface{}{
				"status":                 models.ContractStatusSigned,
				"signer_name":            signerName,
				"signer_email":           signerEmail,
				"signer_ip":              ip,
				"signer_user_agent":      userAgent,
				"signature_image":        signatureImage,
				"signed_at":              now,
				"signature_token":        nil,
				"signature_requested_at": nil,
				"signature_expires_at":   nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errSignPreconditionFailed
		}
		if err := mirrorContractStatus(tx, contract.ProjectID, models.ContractStatusSigned); err != nil {
			return err
		}
		return logSignatureAction(tx, contract, models.SignatureActionSigned, signerEmail, ip, userAgent,
			fmt.Sprintf("signed by %s", signerName))
	})

	if errors.Is(err, errSignPreconditionFailed) {
		return time.Time{}, classifySignFailure(db, contract.ID, token)
	}
	if err != nil {
		return time.Time{}, err
	}

	contract.Status = models.ContractStatusSigned
	contract.SignerName = signerName
	contract.SignerEmail = signerEmail
	contract.SignedAt = &now
	contract.SignatureToken = nil
	return now, nil
}

// classifySignFailure re-reads the row after a failed conditional sign to
// report why the precondition did not hold.
func classifySignFailure(db *gorm.DB, contractID uint, token string) error {
	var contract models.Contract
	if err := db.First(&contract, contractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errInvalidLink
		}
		return err
	}

	if contract.SignedAt != nil {
		return errAlreadySigned
	}
	if contract.SignatureToken == nil || *contract.SignatureToken != token {
		return errInvalidLink
	}
	if contract.SignatureExpiresAt == nil || !contract.SignatureExpiresAt.After(time.Now()) {
		_ = expireContract(db, &contract)
		return errExpiredLink
	}
	return errInvalidLink
}

// countersign records the agency-side signature. It fails closed when the
// client has not signed yet: the guard is in the WHERE clause, so
// countersigning never implicitly signs on the client's behalf. Unlike
// client signing, countersigning again overwrites: the operator is a
// trusted actor and may need to correct a countersignature; every attempt
// is audited.
func countersign(db *gorm.DB, contract *models.Contract, name, email, signatureImage, ip, userAgent string) (time.Time, error) {
	now := time.Now()

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND signed_at IS NOT NULL", contract.ID).
			Updates(map[string]interface{}{
				"countersigner_name":       name,
				"countersigner_email":      email,
				"countersigner_ip":         ip,
				"countersigner_user_agent": userAgent,
				"countersignature_image":   signatureImage,
				"countersigned_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errClientSignatureRequired
		}
		return logSignatureAction(tx, contract, models.SignatureActionCountersigned, email, ip, userAgent,
			fmt.Sprintf("countersigned by %s", name))
	})
	if err != nil {
		return time.Time{}, err
	}

	contract.CountersignerName = name
	contract.CountersignerEmail = email
	contract.CountersignatureImage = signatureImage
	contract.CountersignedAt = &now
	return now, nil
}

// cancelContract moves any non-terminal contract to cancelled and
// invalidates an outstanding signing link.
func cancelContract(db *gorm.DB, contract *models.Contract, actor string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Contract{}).
			Where("id = ? AND status IN ?", contract.ID,
				[]string{models.ContractStatusDraft, models.ContractStatusSent, models.ContractStatusViewed}).
			Updates(map[string]interface{}{
				"status":                 models.ContractStatusCancelled,
				"signature_token":        nil,
				"signature_requested_at": nil,
				"signature_expires_at":   nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errContractNotPending
		}
		contract.Status = models.ContractStatusCancelled
		if err := mirrorContractStatus(tx, contract.ProjectID, models.ContractStatusCancelled); err != nil {
			return err
		}
		return logSignatureAction(tx, contract, models.SignatureActionCancelled, actor, "", "", "")
	})
}

// latestContractForProject returns the newest contract on a project, the
// record the operator-facing signature endpoints act on.
func latestContractForProject(db *gorm.DB, projectID string) (*models.Contract, error) {
	var contract models.Contract
	err := db.Preload("Project").Preload("Client").
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errContractNotFound
		}
		return nil, err
	}
	return &contract, nil
}
