package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"urbangear/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

const productColumns = `
	p.id, p.name, p.price, p.image, p.category_id, c.name AS category, p.description, p.created_at`

// GetCategoryByName resolves a category by its display name
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE name = $1", name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category not found: %s", name)
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetProductByID retrieves a product by ID with its category name
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	query := `SELECT` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`
	err := s.db.GetContext(ctx, &product, query, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves the full catalog
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	query := `SELECT` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id
		ORDER BY p.id`
	err := s.db.SelectContext(ctx, &products, query)
	return products, err
}

// GetProductsByCategory retrieves all products in a named category,
// resolving the category first the way the storefront does.
func (s *Store) GetProductsByCategory(ctx context.Context, categoryName string) ([]models.Product, error) {
	category, err := s.GetCategoryByName(ctx, categoryName)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	query := `SELECT` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = $1
		ORDER BY p.id`
	err = s.db.SelectContext(ctx, &products, query, category.ID)
	return products, err
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT`+productColumns+`
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// CreateUser creates a new user with a hashed password
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, user, query, user.Email, user.PasswordHash)
}

// GetUserByEmail retrieves a user by email, nil if not registered
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
