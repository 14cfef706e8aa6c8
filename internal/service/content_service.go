package service

import (
	"context"
	"fmt"

	"fundraising/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type SliderRequest struct {
	Title    string `json:"title" binding:"required"`
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url" binding:"required,url"`
	LinkURL  string `json:"link_url" binding:"omitempty,url"`
	Position int    `json:"position"`
	Active   *bool  `json:"active"`
}

type MenuItemRequest struct {
	Label    string `json:"label" binding:"required"`
	URL      string `json:"url" binding:"required"`
	ParentID string `json:"parent_id"`
	Position int    `json:"position"`
	Active   *bool  `json:"active"`
}

// --- Interface ---

// ContentService manages the public site's admin-editable surface: homepage
// sliders and navigation menus.
type ContentService interface {
	ListSliders(ctx context.Context, activeOnly bool) ([]model.Slider, error)
	CreateSlider(ctx context.Context, req SliderRequest) (*model.Slider, error)
	UpdateSlider(ctx context.Context, id string, req SliderRequest) (*model.Slider, error)
	DeleteSlider(ctx context.Context, id string) error

	ListMenuItems(ctx context.Context, activeOnly bool) ([]model.MenuItem, error)
	CreateMenuItem(ctx context.Context, req MenuItemRequest) (*model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id string, req MenuItemRequest) (*model.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) error
}

type contentService struct {
	db *gorm.DB
}

func NewContentService(db *gorm.DB) ContentService {
	return &contentService{db: db}
}

// --- Sliders ---

func (s *contentService) ListSliders(ctx context.Context, activeOnly bool) ([]model.Slider, error) {
	var sliders []model.Slider
	query := s.db.WithContext(ctx).Order("position ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&sliders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch sliders: %w", err)
	}
	return sliders, nil
}

func (s *contentService) CreateSlider(ctx context.Context, req SliderRequest) (*model.Slider, error) {
	slider := model.Slider{
		Title:    req.Title,
		Caption:  req.Caption,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		Position: req.Position,
		Active:   true,
	}
	if req.Active != nil {
		slider.Active = *req.Active
	}
	if err := s.db.WithContext(ctx).Create(&slider).Error; err != nil {
		return nil, fmt.Errorf("failed to create slider: %w", err)
	}
	return &slider, nil
}

func (s *contentService) UpdateSlider(ctx context.Context, id string, req SliderRequest) (*model.Slider, error) {
	sliderID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid slider id: %w", err)
	}

	var slider model.Slider
	if err := s.db.WithContext(ctx).First(&slider, "id = ?", sliderID).Error; err != nil {
		return nil, fmt.Errorf("slider not found: %w", err)
	}

	slider.Title = req.Title
	slider.Caption = req.Caption
	slider.ImageURL = req.ImageURL
	slider.LinkURL = req.LinkURL
	slider.Position = req.Position
	if req.Active != nil {
		slider.Active = *req.Active
	}

	if err := s.db.WithContext(ctx).Save(&slider).Error; err != nil {
		return nil, fmt.Errorf("failed to update slider: %w", err)
	}
	return &slider, nil
}

func (s *contentService) DeleteSlider(ctx context.Context, id string) error {
	sliderID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid slider id: %w", err)
	}
	return s.db.WithContext(ctx).Where("id = ?", sliderID).Delete(&model.Slider{}).Error
}

// --- Menu items ---

func (s *contentService) ListMenuItems(ctx context.Context, activeOnly bool) ([]model.MenuItem, error) {
	var items []model.MenuItem
	query := s.db.WithContext(ctx).Order("position ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch menu items: %w", err)
	}
	return items, nil
}

func (s *contentService) CreateMenuItem(ctx context.Context, req MenuItemRequest) (*model.MenuItem, error) {
	item := model.MenuItem{
		Label:    req.Label,
		URL:      req.URL,
		Position: req.Position,
		Active:   true,
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.ParentID != "" {
		parent, err := s.findMenuItem(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ParentID != nil {
			return nil, fmt.Errorf("menu items nest only one level deep")
		}
		item.ParentID = &parent.ID
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return &item, nil
}

func (s *contentService) UpdateMenuItem(ctx context.Context, id string, req MenuItemRequest) (*model.MenuItem, error) {
	item, err := s.findMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Label = req.Label
	item.URL = req.URL
	item.Position = req.Position
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.ParentID != "" {
		parent, parentErr := s.findMenuItem(ctx, req.ParentID)
		if parentErr != nil {
			return nil, parentErr
		}
		if parent.ID == item.ID {
			return nil, fmt.Errorf("menu item cannot be its own parent")
		}
		item.ParentID = &parent.ID
	} else {
		item.ParentID = nil
	}

	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	return item, nil
}

func (s *contentService) DeleteMenuItem(ctx context.Context, id string) error {
	item, err := s.findMenuItem(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Children move to top level rather than dangling.
		if err := tx.Model(&model.MenuItem{}).Where("parent_id = ?", item.ID).
			Update("parent_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach children: %w", err)
		}
		return tx.Delete(item).Error
	})
}

func (s *contentService) findMenuItem(ctx context.Context, id string) (*model.MenuItem, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid menu item id: %w", err)
	}
	var item model.MenuItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, fmt.Errorf("menu item not found: %w", err)
	}
	return &item, nil
}
