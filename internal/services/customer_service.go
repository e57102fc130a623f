package services

import (
	"context"
	"strings"

	"github.com/mrlokans/bookstore/internal/database/customers"
	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/errs"
	"github.com/mrlokans/bookstore/internal/mirror"
)

type CustomerInput struct {
	Code        string `json:"customer_code" yaml:"customer_code"`
	FullName    string `json:"full_name" yaml:"full_name"`
	Address     string `json:"address" yaml:"address"`
	PhoneNumber string `json:"phone_number" yaml:"phone_number"`
}

func (in CustomerInput) entity() *entities.Customer {
	return &entities.Customer{
		Code:        strings.TrimSpace(in.Code),
		FullName:    strings.TrimSpace(in.FullName),
		Address:     strings.TrimSpace(in.Address),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
	}
}

type CustomerService struct {
	store CustomerStore
	sync  *MirrorSync
}

func NewCustomerService(store CustomerStore, sync *MirrorSync) *CustomerService {
	return &CustomerService{store: store, sync: sync}
}

func (s *CustomerService) AddCustomer(ctx context.Context, in CustomerInput) (Outcome, error) {
	customer := in.entity()
	if customer.Code == "" || customer.FullName == "" {
		return Outcome{}, errs.Newf(errs.KindInvalid, "customers.add", "customer code and name are required")
	}
	if err := s.store.Create(ctx, customer); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        customer.ID,
		MirrorErr: s.sync.write(ctx, mirror.CollectionCustomers, customer.ID, customerDocument(customer)),
	}, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, in CustomerInput) (Outcome, error) {
	customer, err := s.store.Update(ctx, in.entity())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        customer.ID,
		MirrorErr: s.sync.upsert(ctx, mirror.CollectionCustomers, customer.ID, customerDocument(customer)),
	}, nil
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, code string) (Outcome, error) {
	id, err := s.store.Delete(ctx, code)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ID:        id,
		MirrorErr: s.sync.remove(ctx, mirror.CollectionCustomers, id),
	}, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, code string) (*entities.Customer, error) {
	return s.store.GetByCode(ctx, code)
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]entities.Customer, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return []entities.Customer{}, err
	}
	return list, nil
}

func (s *CustomerService) SearchCustomers(ctx context.Context, f customers.Filter) ([]entities.Customer, error) {
	list, err := s.store.Search(ctx, f)
	if err != nil {
		return []entities.Customer{}, err
	}
	return list, nil
}
