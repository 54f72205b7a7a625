package customer

import (
	"context"
	"sort"
	"strings"
	"sync"

	domain "retailhub/internal/domain/customer"
	"retailhub/pkg/logger"
)

type RegisterCommand struct {
	ID      int    `json:"id"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Age     int    `json:"age"`
}

// Directory is the in-memory customer registry. It always contains the
// walk-in customer used for anonymous direct sales.
type Directory struct {
	mu        sync.RWMutex
	customers map[int]*domain.Customer
	nextID    int

	log logger.Logger
}

func NewDirectory(log logger.Logger) *Directory {
	walkIn := &domain.Customer{ID: domain.WalkInID, Name: "Walk-in Customer"}
	return &Directory{
		customers: map[int]*domain.Customer{walkIn.ID: walkIn},
		nextID:    1,
		log:       log,
	}
}

// Register adds a customer. A zero id is replaced by the next free one.
func (d *Directory) Register(ctx context.Context, cmd RegisterCommand) (domain.Customer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := cmd.ID
	if id == 0 {
		for d.customers[d.nextID] != nil {
			d.nextID++
		}
		id = d.nextID
	}
	if _, ok := d.customers[id]; ok {
		return domain.Customer{}, domain.ErrDuplicateID
	}

	c, err := domain.NewCustomer(id, cmd.Name, cmd.Email, cmd.Phone, cmd.Address, cmd.Age)
	if err != nil {
		return domain.Customer{}, err
	}
	d.customers[id] = c

	d.log.WithContext(ctx).Info("customer registered", logger.Int("customer_id", id))
	return *c, nil
}

// Lookup returns the shared customer record that orders reference.
func (d *Directory) Lookup(id int) (*domain.Customer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (d *Directory) FindByID(id int) (domain.Customer, error) {
	c, err := d.Lookup(id)
	if err != nil {
		return domain.Customer{}, err
	}
	return *c, nil
}

// FindByEmail compares case-insensitively.
func (d *Directory) FindByEmail(email string) (domain.Customer, error) {
	email = strings.TrimSpace(email)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.customers {
		if c.Email != "" && strings.EqualFold(c.Email, email) {
			return *c, nil
		}
	}
	return domain.Customer{}, domain.ErrNotFound
}

// WalkIn returns the anonymous customer for direct sales.
func (d *Directory) WalkIn() *domain.Customer {
	c, _ := d.Lookup(domain.WalkInID)
	return c
}

func (d *Directory) List() []domain.Customer {
	d.mu.RLock()
	out := make([]domain.Customer, 0, len(d.customers))
	for _, c := range d.customers {
		out = append(out, *c)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
