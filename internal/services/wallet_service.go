package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/genz27/LightSource/internal/database"
	"github.com/genz27/LightSource/internal/models"
)

// ErrInsufficientBalance rejects paid jobs the owner cannot afford.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Per-kind prices. Anonymous jobs are free; the orchestrator itself never
// performs monetary operations.
var kindPrices = map[models.JobKind]float64{
	models.JobKindTextToImage:  5.0,
	models.JobKindTextToVideo:  20.0,
	models.JobKindImageToVideo: 12.0,
}

// PriceForKind returns the debit applied before a job of this kind is enqueued.
func PriceForKind(kind models.JobKind) float64 {
	return kindPrices[kind]
}

// EnsureWallet returns the owner's wallet, creating an empty one on first use.
func EnsureWallet(ownerID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := database.DB.First(&wallet, "owner_id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = models.Wallet{OwnerID: ownerID, Balance: 0}
		if err := database.DB.Create(&wallet).Error; err != nil {
			return nil, err
		}
		return &wallet, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// AdjustBalance applies a delta to the owner's wallet and records the
// transaction for audit.
func AdjustBalance(ownerID uint, delta float64, txType models.TransactionType, refJobID *uint, description string) (*models.Wallet, error) {
	wallet, err := EnsureWallet(ownerID)
	if err != nil {
		return nil, err
	}
	wallet.Balance += delta
	if err := database.DB.Save(wallet).Error; err != nil {
		return nil, err
	}
	tx := models.WalletTransaction{
		OwnerID:     ownerID,
		Delta:       delta,
		Type:        txType,
		RefJobID:    refJobID,
		Description: description,
	}
	if err := database.DB.Create(&tx).Error; err != nil {
		return nil, err
	}
	return wallet, nil
}

// CheckBalanceForKind verifies the owner can afford a job of this kind.
func CheckBalanceForKind(ownerID uint, kind models.JobKind) error {
	price := PriceForKind(kind)
	if price <= 0 {
		return nil
	}
	wallet, err := EnsureWallet(ownerID)
	if err != nil {
		return err
	}
	if wallet.Balance < price {
		return ErrInsufficientBalance
	}
	return nil
}

// ChargeForJob debits the job's owner before enqueue. Anonymous jobs are not
// charged.
func ChargeForJob(job *models.Job) error {
	if job.OwnerID == nil {
		return nil
	}
	price := PriceForKind(job.Kind)
	if price <= 0 {
		return nil
	}
	_, err := AdjustBalance(*job.OwnerID, -price, models.TransactionTypeDeduct, &job.ID, fmt.Sprintf("%s job %d", job.Kind, job.ID))
	return err
}
