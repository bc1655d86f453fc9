package handlers

import (
	"fmt"
	"log/slog"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"
)

// Signing-flow email copy. All senders are called fire-and-forget from the
// handlers: a failed notification is logged and never affects the state
// transition that already committed.

func sendSignatureRequestEmail(contract *models.Contract, token string) {
	if contract.Client == nil || contract.Client.Email == "" {
		return
	}
	projectName := ""
	if contract.Project != nil {
		projectName = contract.Project.Name
	}
	link := signingLink(token)

	subject := fmt.Sprintf("Contract ready to sign: %s", projectName)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour contract for %q is ready to review and sign:\n\n%s\n\nThe link is valid for 7 days.\n\n- %s",
		contract.Client.Name, projectName, link, businessName())
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your contract for <b>%s</b> is ready to review and sign:</p><p><a href=%q>Review and sign</a></p><p>The link is valid for 7 days.</p><p>- %s</p>",
		contract.Client.Name, projectName, link, businessName())

	if err := config.Mail.Send(contract.Client.Email, subject, text, html); err != nil {
		slog.Error("Failed to send signature request email", "error", err, "contract_id", contract.ID)
	}
}

func sendSignedConfirmationEmail(contract *models.Contract) {
	if contract.SignerEmail == "" {
		return
	}
	projectName := ""
	if contract.Project != nil {
		projectName = contract.Project.Name
	}

	subject := fmt.Sprintf("Signed copy received: %s", projectName)
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received your signature on the contract for %q. We'll countersign and send you the final copy shortly.\n\n- %s",
		contract.SignerName, projectName, businessName())

	if err := config.Mail.Send(contract.SignerEmail, subject, text, ""); err != nil {
		slog.Error("Failed to send signing confirmation email", "error", err, "contract_id", contract.ID)
	}
}

func sendOperatorSignedNotice(contract *models.Contract) {
	projectName := ""
	if contract.Project != nil {
		projectName = contract.Project.Name
	}

	subject := fmt.Sprintf("Client signed: %s", projectName)
	text := fmt.Sprintf(
		"%s signed the contract for %q (contract #%d). It is ready to countersign.",
		contract.SignerName, projectName, contract.ID)

	if err := config.Mail.Send(businessEmail(), subject, text, ""); err != nil {
		slog.Error("Failed to send internal signed notice", "error", err, "contract_id", contract.ID)
	}
}

func sendCountersignedEmail(contract *models.Contract) {
	if contract.SignerEmail == "" {
		return
	}
	projectName := ""
	if contract.Project != nil {
		projectName = contract.Project.Name
	}

	subject := fmt.Sprintf("Contract fully executed: %s", projectName)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour contract for %q has been countersigned and is now fully executed. The final signed copy is available in your client portal.\n\n- %s",
		contract.SignerName, projectName, businessName())

	if err := config.Mail.Send(contract.SignerEmail, subject, text, ""); err != nil {
		slog.Error("Failed to send countersigned email", "error", err, "contract_id", contract.ID)
	}
}
