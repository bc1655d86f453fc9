package handlers

import (
	"os"
	"testing"

	"github.com/nobhad/no-bhad-codes-sub012/config"
	"github.com/nobhad/no-bhad-codes-sub012/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.InitMailer()
	os.Exit(m.Run())
}

// setupTestDB opens a fresh in-memory database, migrates the schema and
// installs it as the shared handle the handlers use.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second connection to :memory: would get its own empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.Client{},
		&models.Project{},
		&models.ContractTemplate{},
		&models.Contract{},
		&models.SignatureLog{},
		&models.Invoice{},
		&models.PaymentForm{},
		&models.Installment{},
		&models.Proposal{},
	))

	config.DB = db
	return db
}

// createSigningFixture seeds a client, a project and a draft contract.
func createSigningFixture(t *testing.T, db *gorm.DB) (*models.Client, *models.Project, *models.Contract) {
	t.Helper()

	client := models.Client{
		Name:        "Dana Reyes",
		CompanyName: "Acme Co",
		Email:       "dana@acme.test",
	}
	require.NoError(t, db.Create(&client).Error)

	project := models.Project{
		Name:           "Acme Website Redesign",
		Status:         models.ProjectStatusActive,
		Price:          4800,
		ClientID:       client.ID,
		ContractStatus: "none",
	}
	require.NoError(t, db.Create(&project).Error)

	contract := models.Contract{
		ProjectID: project.ID,
		ClientID:  client.ID,
		Body:      "Agreement between Acme Co and the studio.",
		Status:    models.ContractStatusDraft,
	}
	require.NoError(t, db.Create(&contract).Error)

	contract.Project = &project
	contract.Client = &client
	return &client, &project, &contract
}

// reloadContract re-reads a contract row, bypassing any stale struct state.
func reloadContract(t *testing.T, db *gorm.DB, id uint) models.Contract {
	t.Helper()
	var contract models.Contract
	require.NoError(t, db.First(&contract, id).Error)
	return contract
}

func reloadProject(t *testing.T, db *gorm.DB, id uint) models.Project {
	t.Helper()
	var project models.Project
	require.NoError(t, db.First(&project, id).Error)
	return project
}

func signatureTrail(t *testing.T, db *gorm.DB, contractID uint) []models.SignatureLog {
	t.Helper()
	trail, err := loadSignatureTrail(db, contractID)
	require.NoError(t, err)
	return trail
}
