package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- Vendor DTOs ---

type CreateVendorRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
}

type UpdateVendorRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Address       *string `json:"address"`
	IsActive      *bool   `json:"is_active"`
}

// --- Depot / Agency DTOs ---

type CreateDepotRequest struct {
	Name    string `json:"name" binding:"required"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type UpdateDepotRequest struct {
	Name     *string `json:"name"`
	City     *string `json:"city"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}

type CreateAgencyRequest struct {
	Name          string `json:"name" binding:"required"`
	DepotID       string `json:"depot_id"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
}

type UpdateAgencyRequest struct {
	Name          *string `json:"name"`
	DepotID       *string `json:"depot_id"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	IsActive      *bool   `json:"is_active"`
}

// --- Product / Variant DTOs ---

type CreateProductRequest struct {
	SKU       string `json:"sku" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Unit      string `json:"unit" binding:"required"`
	Category  string `json:"category"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type UpdateProductRequest struct {
	SKU       *string `json:"sku"`
	Name      *string `json:"name"`
	Unit      *string `json:"unit"`
	Category  *string `json:"category"`
	UnitPrice *string `json:"unit_price"`
}

type CreateVariantRequest struct {
	DepotID   string `json:"depot_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Unit      string `json:"unit"`
	Price     string `json:"price" binding:"required"`
}

type UpdateVariantRequest struct {
	Name     *string `json:"name"`
	Unit     *string `json:"unit"`
	Price    *string `json:"price"`
	IsActive *bool   `json:"is_active"`
}

// CatalogService manages the reference data the fulfillment pipeline reads:
// vendors, depots, agencies, products and depot-scoped variants
type CatalogService interface {
	ListVendors(ctx context.Context, page, limit int, search string) ([]model.Vendor, int64, error)
	CreateVendor(ctx context.Context, actingUserID string, req CreateVendorRequest) (*model.Vendor, error)
	UpdateVendor(ctx context.Context, actingUserID string, id string, req UpdateVendorRequest) (*model.Vendor, error)
	DeleteVendor(ctx context.Context, actingUserID string, id string) error

	ListDepots(ctx context.Context, page, limit int, search string) ([]model.Depot, int64, error)
	CreateDepot(ctx context.Context, actingUserID string, req CreateDepotRequest) (*model.Depot, error)
	UpdateDepot(ctx context.Context, actingUserID string, id string, req UpdateDepotRequest) (*model.Depot, error)
	DeleteDepot(ctx context.Context, actingUserID string, id string) error

	ListAgencies(ctx context.Context, page, limit int, search string) ([]model.Agency, int64, error)
	CreateAgency(ctx context.Context, actingUserID string, req CreateAgencyRequest) (*model.Agency, error)
	UpdateAgency(ctx context.Context, actingUserID string, id string, req UpdateAgencyRequest) (*model.Agency, error)
	DeleteAgency(ctx context.Context, actingUserID string, id string) error

	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	CreateProduct(ctx context.Context, actingUserID string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actingUserID string, id string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actingUserID string, id string) error

	ListVariants(ctx context.Context, depotID string, page, limit int) ([]model.DepotVariant, int64, error)
	CreateVariant(ctx context.Context, actingUserID string, req CreateVariantRequest) (*model.DepotVariant, error)
	UpdateVariant(ctx context.Context, actingUserID string, id string, req UpdateVariantRequest) (*model.DepotVariant, error)
	DeleteVariant(ctx context.Context, actingUserID string, id string) error
}

type catalogService struct {
	vendorRepo  repository.VendorRepository
	depotRepo   repository.DepotRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCatalogService(
	vendorRepo repository.VendorRepository,
	depotRepo repository.DepotRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		vendorRepo:  vendorRepo,
		depotRepo:   depotRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func normalizePaging(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}

// --- Vendors ---

func (s *catalogService) ListVendors(ctx context.Context, page, limit int, search string) ([]model.Vendor, int64, error) {
	page, limit = normalizePaging(page, limit)
	return s.vendorRepo.List(ctx, page, limit, search)
}

func (s *catalogService) CreateVendor(ctx context.Context, actingUserID string, req CreateVendorRequest) (*model.Vendor, error) {
	vendor := &model.Vendor{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		IsActive:      true,
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vendorRepo.Create(txCtx, vendor); err != nil {
			return fmt.Errorf("failed to create vendor: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionCreateVendor, vendor.ID.String(), vendor.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *catalogService) UpdateVendor(ctx context.Context, actingUserID string, id string, req UpdateVendorRequest) (*model.Vendor, error) {
	vendorID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor id: %w", err)
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("vendor not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != nil {
		vendor.Name = *req.Name
	}
	if req.ContactPerson != nil {
		vendor.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		vendor.Phone = *req.Phone
	}
	if req.Email != nil {
		vendor.Email = *req.Email
	}
	if req.Address != nil {
		vendor.Address = *req.Address
	}
	if req.IsActive != nil {
		vendor.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vendorRepo.Update(txCtx, vendor); err != nil {
			return fmt.Errorf("failed to update vendor: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionUpdateVendor, vendor.ID.String(), vendor.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *catalogService) DeleteVendor(ctx context.Context, actingUserID string, id string) error {
	vendorID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid vendor id: %w", err)
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("vendor not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vendorRepo.Delete(txCtx, vendorID); err != nil {
			return fmt.Errorf("failed to delete vendor: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionDeleteVendor, vendor.ID.String(), vendor.Name, nil)
	})
}

// --- Depots ---

func (s *catalogService) ListDepots(ctx context.Context, page, limit int, search string) ([]model.Depot, int64, error) {
	page, limit = normalizePaging(page, limit)
	return s.depotRepo.ListDepots(ctx, page, limit, search)
}

func (s *catalogService) CreateDepot(ctx context.Context, actingUserID string, req CreateDepotRequest) (*model.Depot, error) {
	depot := &model.Depot{Name: req.Name, City: req.City, Address: req.Address, IsActive: true}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.depotRepo.CreateDepot(txCtx, depot); err != nil {
			return fmt.Errorf("failed to create depot: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionCreateDepot, depot.ID.String(), depot.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return depot, nil
}

func (s *catalogService) UpdateDepot(ctx context.Context, actingUserID string, id string, req UpdateDepotRequest) (*model.Depot, error) {
	depotID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid depot id: %w", err)
	}
	depot, err := s.depotRepo.FindDepotByID(ctx, depotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("depot not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != nil {
		depot.Name = *req.Name
	}
	if req.City != nil {
		depot.City = *req.City
	}
	if req.Address != nil {
		depot.Address = *req.Address
	}
	if req.IsActive != nil {
		depot.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.depotRepo.UpdateDepot(txCtx, depot); err != nil {
			return fmt.Errorf("failed to update depot: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionUpdateDepot, depot.ID.String(), depot.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return depot, nil
}

func (s *catalogService) DeleteDepot(ctx context.Context, actingUserID string, id string) error {
	depotID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid depot id: %w", err)
	}
	depot, err := s.depotRepo.FindDepotByID(ctx, depotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("depot not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.depotRepo.DeleteDepot(txCtx, depotID); err != nil {
			return fmt.Errorf("failed to delete depot: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionDeleteDepot, depot.ID.String(), depot.Name, nil)
	})
}

// --- Agencies ---

func (s *catalogService) ListAgencies(ctx context.Context, page, limit int, search string) ([]model.Agency, int64, error) {
	page, limit = normalizePaging(page, limit)
	return s.depotRepo.ListAgencies(ctx, page, limit, search)
}

func (s *catalogService) CreateAgency(ctx context.Context, actingUserID string, req CreateAgencyRequest) (*model.Agency, error) {
	agency := &model.Agency{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		IsActive:      true,
	}
	if req.DepotID != "" {
		depotID, err := uuid.Parse(req.DepotID)
		if err != nil {
			return nil, fmt.Errorf("invalid depot id: %w", err)
		}
		agency.DepotID = &depotID
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.depotRepo.CreateAgency(txCtx, agency); err != nil {
			return fmt.Errorf("failed to create agency: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionCreateAgency, agency.ID.String(), agency.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return agency, nil
}

func (s *catalogService) UpdateAgency(ctx context.Context, actingUserID string, id string, req UpdateAgencyRequest) (*model.Agency, error) {
	agencyID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid agency id: %w", err)
	}
	agency, err := s.depotRepo.FindAgencyByID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("agency not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != nil {
		agency.Name = *req.Name
	}
	if req.DepotID != nil {
		if *req.DepotID == "" {
			agency.DepotID = nil
		} else {
			depotID, err := uuid.Parse(*req.DepotID)
			if err != nil {
				return nil, fmt.Errorf("invalid depot id: %w", err)
			}
			agency.DepotID = &depotID
		}
	}
	if req.ContactPerson != nil {
		agency.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		agency.Phone = *req.Phone
	}
	if req.IsActive != nil {
		agency.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.depotRepo.UpdateAgency(txCtx, agency); err != nil {
			return fmt.Errorf("failed to update agency: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionUpdateAgency, agency.ID.String(), agency.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return agency, nil
}

func (s *catalogService) DeleteAgency(ctx context.Context, actingUserID string, id string) error {
	agencyID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid agency id: %w", err)
	}
	agency, err := s.depotRepo.FindAgencyByID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("agency not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.depotRepo.DeleteAgency(txCtx, agencyID); err != nil {
			return fmt.Errorf("failed to delete agency: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionDeleteAgency, agency.ID.String(), agency.Name, nil)
	})
}

// --- Products ---

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	page, limit = normalizePaging(page, limit)
	return s.productRepo.List(ctx, page, limit, search)
}

func (s *catalogService) CreateProduct(ctx context.Context, actingUserID string, req CreateProductRequest) (*model.Product, error) {
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		return nil, errors.New("unit_price must be a non-negative decimal")
	}
	product := &model.Product{
		SKU:       req.SKU,
		Name:      req.Name,
		Unit:      req.Unit,
		Category:  req.Category,
		UnitPrice: price,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, actingUserID string, id string, req UpdateProductRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.UnitPrice != nil {
		price, err := decimal.NewFromString(*req.UnitPrice)
		if err != nil || price.IsNegative() {
			return nil, errors.New("unit_price must be a non-negative decimal")
		}
		product.UnitPrice = price
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, actingUserID string, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionDeleteProduct, product.ID.String(), product.Name, nil)
	})
}

// --- Depot variants ---

func (s *catalogService) ListVariants(ctx context.Context, depotID string, page, limit int) ([]model.DepotVariant, int64, error) {
	page, limit = normalizePaging(page, limit)
	var filter *uuid.UUID
	if depotID != "" {
		parsed, err := uuid.Parse(depotID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid depot id: %w", err)
		}
		filter = &parsed
	}
	return s.productRepo.ListVariants(ctx, filter, page, limit)
}

func (s *catalogService) CreateVariant(ctx context.Context, actingUserID string, req CreateVariantRequest) (*model.DepotVariant, error) {
	depotID, err := uuid.Parse(req.DepotID)
	if err != nil {
		return nil, fmt.Errorf("invalid depot id: %w", err)
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, errors.New("price must be a non-negative decimal")
	}

	// A variant belongs to exactly one depot and one product
	if _, err := s.depotRepo.FindDepotByID(ctx, depotID); err != nil {
		return nil, errors.New("depot not found")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, errors.New("product not found")
	}

	variant := &model.DepotVariant{
		DepotID:   depotID,
		ProductID: productID,
		Name:      req.Name,
		Unit:      req.Unit,
		Price:     price,
		IsActive:  true,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.CreateVariant(txCtx, variant); err != nil {
			return fmt.Errorf("failed to create depot variant: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionCreateVariant, variant.ID.String(), variant.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}

func (s *catalogService) UpdateVariant(ctx context.Context, actingUserID string, id string, req UpdateVariantRequest) (*model.DepotVariant, error) {
	variantID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid variant id: %w", err)
	}
	variant, err := s.productRepo.FindVariantByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("depot variant not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != nil {
		variant.Name = *req.Name
	}
	if req.Unit != nil {
		variant.Unit = *req.Unit
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			return nil, errors.New("price must be a non-negative decimal")
		}
		variant.Price = price
	}
	if req.IsActive != nil {
		variant.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.UpdateVariant(txCtx, variant); err != nil {
			return fmt.Errorf("failed to update depot variant: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionUpdateVariant, variant.ID.String(), variant.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}

func (s *catalogService) DeleteVariant(ctx context.Context, actingUserID string, id string) error {
	variantID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid variant id: %w", err)
	}
	variant, err := s.productRepo.FindVariantByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("depot variant not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.DeleteVariant(txCtx, variantID); err != nil {
			return fmt.Errorf("failed to delete depot variant: %w", err)
		}
		return s.audit(txCtx, actingUserID, model.ActionDeleteVariant, variant.ID.String(), variant.Name, nil)
	})
}

func (s *catalogService) audit(ctx context.Context, actingUserID, action, entityID, entityName string, payload interface{}) error {
	var uid *uuid.UUID
	if parsed, err := uuid.Parse(actingUserID); err == nil {
		uid = &parsed
	}

	details := "{}"
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			details = string(raw)
		}
	}

	entry := &model.AuditLog{
		UserID:     uid,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
