package service_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/biotechlab/lis-backend/internal/lis/repository"
	"github.com/biotechlab/lis-backend/pkg/errors"
)

// fakeStore is an in-memory repository.Store. WithTx snapshots the state and
// restores it when the callback fails, mirroring a database rollback.
type fakeStore struct {
	brands    map[int64]*repository.Brand
	locations map[int64]*repository.Location
	inventory map[string]*repository.Inventory
	itemLocs  map[int64]*repository.ItemLocation
	orders    map[int64]*repository.PurchaseOrder
	txns      map[int64]*repository.CustomerTransaction
	soldItems map[int64]*repository.SoldItem
	customers map[int64]*repository.Customer
	users     map[int64]*repository.User
	nextID    int64
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		brands:    map[int64]*repository.Brand{},
		locations: map[int64]*repository.Location{},
		inventory: map[string]*repository.Inventory{},
		itemLocs:  map[int64]*repository.ItemLocation{},
		orders:    map[int64]*repository.PurchaseOrder{},
		txns:      map[int64]*repository.CustomerTransaction{},
		soldItems: map[int64]*repository.SoldItem{},
		customers: map[int64]*repository.Customer{},
		users:     map[int64]*repository.User{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) snapshot() *fakeStore {
	s := newFakeStore()
	s.nextID = f.nextID
	for k, v := range f.brands {
		c := *v
		s.brands[k] = &c
	}
	for k, v := range f.locations {
		c := *v
		s.locations[k] = &c
	}
	for k, v := range f.inventory {
		c := *v
		s.inventory[k] = &c
	}
	for k, v := range f.itemLocs {
		c := *v
		s.itemLocs[k] = &c
	}
	for k, v := range f.orders {
		c := *v
		s.orders[k] = &c
	}
	for k, v := range f.txns {
		c := *v
		s.txns[k] = &c
	}
	for k, v := range f.soldItems {
		c := *v
		s.soldItems[k] = &c
	}
	for k, v := range f.customers {
		c := *v
		s.customers[k] = &c
	}
	for k, v := range f.users {
		c := *v
		s.users[k] = &c
	}
	return s
}

func (f *fakeStore) restore(s *fakeStore) {
	f.brands = s.brands
	f.locations = s.locations
	f.inventory = s.inventory
	f.itemLocs = s.itemLocs
	f.orders = s.orders
	f.txns = s.txns
	f.soldItems = s.soldItems
	f.customers = s.customers
	f.users = s.users
	f.nextID = s.nextID
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	before := f.snapshot()
	if err := fn(ctx, f); err != nil {
		f.restore(before)
		return err
	}
	return nil
}

// Brands

func (f *fakeStore) CreateBrand(_ context.Context, brand *repository.Brand) error {
	for _, b := range f.brands {
		if strings.EqualFold(b.Name, brand.Name) {
			return errors.Conflict("a brand with this name already exists")
		}
	}
	brand.ID = f.id()
	brand.CreatedAt = time.Now()
	brand.UpdatedAt = brand.CreatedAt
	c := *brand
	f.brands[brand.ID] = &c
	return nil
}

func (f *fakeStore) GetBrand(_ context.Context, id int64) (*repository.Brand, error) {
	b, ok := f.brands[id]
	if !ok {
		return nil, errors.NotFound("brand")
	}
	c := *b
	return &c, nil
}

func (f *fakeStore) GetBrandByName(_ context.Context, name string) (*repository.Brand, error) {
	for _, b := range f.brands {
		if strings.EqualFold(b.Name, name) {
			c := *b
			return &c, nil
		}
	}
	return nil, errors.NotFound("brand")
}

func (f *fakeStore) ListBrands(_ context.Context) ([]*repository.Brand, error) {
	out := []*repository.Brand{}
	for _, b := range f.brands {
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) UpdateBrand(_ context.Context, brand *repository.Brand) error {
	b, ok := f.brands[brand.ID]
	if !ok {
		return errors.NotFound("brand")
	}
	b.Name = brand.Name
	b.Abbreviation = brand.Abbreviation
	b.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) DeleteBrand(_ context.Context, id int64) error {
	if _, ok := f.brands[id]; !ok {
		return errors.NotFound("brand")
	}
	delete(f.brands, id)
	return nil
}

func (f *fakeStore) AllocateBrandSequence(_ context.Context, name string) (string, int, error) {
	for _, b := range f.brands {
		if strings.EqualFold(b.Name, name) {
			seq := b.LatestSequence
			b.LatestSequence++
			b.UpdatedAt = time.Now()
			return b.Abbreviation, seq, nil
		}
	}
	return "", 0, errors.NotFound("brand")
}

// Locations

func (f *fakeStore) CreateLocation(_ context.Context, location *repository.Location) error {
	for _, l := range f.locations {
		if strings.EqualFold(l.Name, location.Name) {
			return errors.Conflict("a location with this name already exists")
		}
	}
	location.ID = f.id()
	location.CreatedAt = time.Now()
	location.UpdatedAt = location.CreatedAt
	c := *location
	f.locations[location.ID] = &c
	return nil
}

func (f *fakeStore) GetLocation(_ context.Context, id int64) (*repository.Location, error) {
	l, ok := f.locations[id]
	if !ok {
		return nil, errors.NotFound("location")
	}
	c := *l
	return &c, nil
}

func (f *fakeStore) GetLocationByName(_ context.Context, name string) (*repository.Location, error) {
	for _, l := range f.locations {
		if strings.EqualFold(l.Name, name) {
			c := *l
			return &c, nil
		}
	}
	return nil, errors.NotFound("location")
}

func (f *fakeStore) ListLocations(_ context.Context) ([]*repository.Location, error) {
	out := []*repository.Location{}
	for _, l := range f.locations {
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) UpdateLocation(_ context.Context, location *repository.Location) error {
	l, ok := f.locations[location.ID]
	if !ok {
		return errors.NotFound("location")
	}
	l.Name = location.Name
	l.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) DeleteLocation(_ context.Context, id int64) error {
	if _, ok := f.locations[id]; !ok {
		return errors.NotFound("location")
	}
	for _, il := range f.itemLocs {
		if il.LocationID == id {
			return errors.BadRequest("referenced record does not exist")
		}
	}
	delete(f.locations, id)
	return nil
}

// Inventory

func (f *fakeStore) CreateInventory(_ context.Context, item *repository.Inventory) error {
	if _, ok := f.inventory[item.ItemCode]; ok {
		return errors.Conflict("an item with this code already exists")
	}
	item.ID = f.id()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	c := *item
	f.inventory[item.ItemCode] = &c
	return nil
}

func (f *fakeStore) GetInventoryByCode(_ context.Context, itemCode string) (*repository.Inventory, error) {
	item, ok := f.inventory[itemCode]
	if !ok {
		return nil, errors.NotFound("inventory item")
	}
	c := *item
	return &c, nil
}

func (f *fakeStore) ListInventory(_ context.Context) ([]*repository.Inventory, error) {
	out := []*repository.Inventory{}
	for _, item := range f.inventory {
		c := *item
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (f *fakeStore) UpdateInventoryDetails(_ context.Context, item *repository.Inventory) error {
	stored, ok := f.inventory[item.ItemCode]
	if !ok {
		return errors.NotFound("inventory item")
	}
	stored.ItemName = item.ItemName
	stored.Brand = item.Brand
	stored.CostPrice = item.CostPrice
	stored.RetailPrice = item.RetailPrice
	stored.LotNumber = item.LotNumber
	stored.PackSize = item.PackSize
	stored.ExpiryDate = item.ExpiryDate
	stored.Note = item.Note
	stored.POPIReference = item.POPIReference
	stored.InvoiceNumber = item.InvoiceNumber
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) SetInventoryQuantity(_ context.Context, itemCode string, quantity int) error {
	stored, ok := f.inventory[itemCode]
	if !ok {
		return errors.NotFound("inventory item")
	}
	stored.Quantity = quantity
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) DeleteInventory(_ context.Context, itemCode string) error {
	if _, ok := f.inventory[itemCode]; !ok {
		return errors.NotFound("inventory item")
	}
	delete(f.inventory, itemCode)
	for id, il := range f.itemLocs {
		if il.ItemCode == itemCode {
			delete(f.itemLocs, id)
		}
	}
	return nil
}

func (f *fakeStore) ListLowStock(_ context.Context, threshold int) ([]*repository.Inventory, error) {
	out := []*repository.Inventory{}
	for _, item := range f.inventory {
		if item.Quantity <= threshold {
			c := *item
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func (f *fakeStore) HighestStock(_ context.Context, limit int) ([]*repository.Inventory, error) {
	all, _ := f.ListInventory(nil)
	sort.Slice(all, func(i, j int) bool { return all[i].Quantity > all[j].Quantity })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeStore) LowestStock(_ context.Context, limit int) ([]*repository.Inventory, error) {
	all, _ := f.ListInventory(nil)
	sort.Slice(all, func(i, j int) bool { return all[i].Quantity < all[j].Quantity })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeStore) ListExpiringBy(_ context.Context, cutoff time.Time) ([]*repository.Inventory, error) {
	out := []*repository.Inventory{}
	for _, item := range f.inventory {
		if item.ExpiryDate != nil && !item.ExpiryDate.After(cutoff) {
			c := *item
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Before(*out[j].ExpiryDate) })
	return out, nil
}

// Ledger

func (f *fakeStore) ListItemLocations(_ context.Context, itemCode string) ([]*repository.ItemLocation, error) {
	out := []*repository.ItemLocation{}
	for _, il := range f.itemLocs {
		if il.ItemCode == itemCode {
			c := *il
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (f *fakeStore) ReplaceItemLocations(_ context.Context, itemCode string, entries []*repository.ItemLocation) error {
	for id, il := range f.itemLocs {
		if il.ItemCode == itemCode {
			delete(f.itemLocs, id)
		}
	}
	for _, entry := range entries {
		if entry.Quantity < 0 {
			return errors.BadRequest("stock quantity cannot go negative")
		}
		entry.ItemCode = itemCode
		entry.ID = f.id()
		entry.CreatedAt = time.Now()
		entry.UpdatedAt = entry.CreatedAt
		c := *entry
		f.itemLocs[entry.ID] = &c
	}
	return nil
}

func (f *fakeStore) GetItemLocationForUpdate(_ context.Context, itemCode string, locationID int64) (*repository.ItemLocation, error) {
	for _, il := range f.itemLocs {
		if il.ItemCode == itemCode && il.LocationID == locationID {
			c := *il
			return &c, nil
		}
	}
	return nil, errors.NotFound("stock at location")
}

func (f *fakeStore) UpsertItemLocation(_ context.Context, itemCode string, locationID int64, delta int) error {
	for _, il := range f.itemLocs {
		if il.ItemCode == itemCode && il.LocationID == locationID {
			if il.Quantity+delta < 0 {
				return errors.BadRequest("stock quantity cannot go negative")
			}
			il.Quantity += delta
			il.UpdatedAt = time.Now()
			return nil
		}
	}
	if delta < 0 {
		return errors.BadRequest("stock quantity cannot go negative")
	}
	entry := &repository.ItemLocation{
		ID:         f.id(),
		ItemCode:   itemCode,
		LocationID: locationID,
		Quantity:   delta,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.itemLocs[entry.ID] = entry
	return nil
}

func (f *fakeStore) SetItemLocationQuantity(_ context.Context, id int64, quantity int) error {
	il, ok := f.itemLocs[id]
	if !ok {
		return errors.NotFound("stock at location")
	}
	if quantity < 0 {
		return errors.BadRequest("stock quantity cannot go negative")
	}
	il.Quantity = quantity
	il.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) SumItemLocations(_ context.Context, itemCode string) (int, error) {
	total := 0
	for _, il := range f.itemLocs {
		if il.ItemCode == itemCode {
			total += il.Quantity
		}
	}
	return total, nil
}

// Purchase orders

func (f *fakeStore) CreatePurchaseOrder(_ context.Context, order *repository.PurchaseOrder) error {
	order.ID = f.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	c := *order
	f.orders[order.ID] = &c
	return nil
}

func (f *fakeStore) GetPurchaseOrder(_ context.Context, id int64) (*repository.PurchaseOrder, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, errors.NotFound("purchase order")
	}
	c := *o
	return &c, nil
}

func (f *fakeStore) ListPurchaseOrders(_ context.Context) ([]*repository.PurchaseOrder, error) {
	out := []*repository.PurchaseOrder{}
	for _, o := range f.orders {
		c := *o
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) DeletePurchaseOrder(_ context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return errors.NotFound("purchase order")
	}
	delete(f.orders, id)
	return nil
}

// Customer transactions

func (f *fakeStore) CreateTransaction(_ context.Context, txn *repository.CustomerTransaction) error {
	for _, t := range f.txns {
		if t.InvoiceReference == txn.InvoiceReference {
			return errors.Conflict("a transaction with this invoice reference already exists")
		}
	}
	txn.ID = f.id()
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = txn.CreatedAt
	c := *txn
	f.txns[txn.ID] = &c
	return nil
}

func (f *fakeStore) CreateSoldItem(_ context.Context, item *repository.SoldItem) error {
	item.ID = f.id()
	item.CreatedAt = time.Now()
	c := *item
	f.soldItems[item.ID] = &c
	return nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id int64) (*repository.CustomerTransaction, error) {
	t, ok := f.txns[id]
	if !ok {
		return nil, errors.NotFound("transaction")
	}
	c := *t
	return &c, nil
}

func (f *fakeStore) GetTransactionByInvoice(_ context.Context, invoiceReference string) (*repository.CustomerTransaction, error) {
	for _, t := range f.txns {
		if t.InvoiceReference == invoiceReference {
			c := *t
			return &c, nil
		}
	}
	return nil, errors.NotFound("transaction")
}

func (f *fakeStore) ListTransactions(_ context.Context) ([]*repository.CustomerTransaction, error) {
	out := []*repository.CustomerTransaction{}
	for _, t := range f.txns {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionDate.After(out[j].TransactionDate) })
	return out, nil
}

func (f *fakeStore) ListSoldItems(_ context.Context, transactionID int64) ([]*repository.SoldItem, error) {
	out := []*repository.SoldItem{}
	for _, si := range f.soldItems {
		if si.TransactionID == transactionID {
			c := *si
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id int64) error {
	if _, ok := f.txns[id]; !ok {
		return errors.NotFound("transaction")
	}
	delete(f.txns, id)
	for sid, si := range f.soldItems {
		if si.TransactionID == id {
			delete(f.soldItems, sid)
		}
	}
	return nil
}

func (f *fakeStore) SalesStatsBetween(_ context.Context, from, to time.Time) (*repository.SalesStats, error) {
	stats := &repository.SalesStats{}
	for _, t := range f.txns {
		if t.TransactionDate.Before(from) || t.TransactionDate.After(to) {
			continue
		}
		stats.TransactionCount++
		for _, si := range f.soldItems {
			if si.TransactionID == t.ID {
				stats.TotalQuantity += int64(si.Quantity)
				stats.TotalRevenue += float64(si.Quantity) * si.RetailPrice
			}
		}
	}
	return stats, nil
}

// Customers

func (f *fakeStore) CreateCustomer(_ context.Context, customer *repository.Customer) error {
	customer.ID = f.id()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt
	c := *customer
	f.customers[customer.ID] = &c
	return nil
}

func (f *fakeStore) GetCustomer(_ context.Context, id int64) (*repository.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, errors.NotFound("customer")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCustomers(_ context.Context) ([]*repository.Customer, error) {
	out := []*repository.Customer{}
	for _, c := range f.customers {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) UpdateCustomer(_ context.Context, customer *repository.Customer) error {
	c, ok := f.customers[customer.ID]
	if !ok {
		return errors.NotFound("customer")
	}
	c.Name = customer.Name
	c.Email = customer.Email
	c.Phone = customer.Phone
	c.Address = customer.Address
	c.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) DeleteCustomer(_ context.Context, id int64) error {
	if _, ok := f.customers[id]; !ok {
		return errors.NotFound("customer")
	}
	delete(f.customers, id)
	return nil
}

// Users

func (f *fakeStore) CreateUser(_ context.Context, user *repository.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return errors.Conflict("a user with this email already exists")
		}
	}
	user.ID = f.id()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	f.users[user.ID] = &c
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("user")
	}
	c := *u
	return &c, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, errors.NotFound("user")
}
