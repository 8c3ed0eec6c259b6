package mock

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viant/brokerage/schema"
)

// storedOrder keeps the submitted input so partial updates can be merged
type storedOrder struct {
	input schema.OrderInput
	order schema.Order
	owner string
}

// AddOrder stores an order on behalf of username, bypassing the HTTP layer
func (s *Service) AddOrder(username string, input *schema.OrderInput, verified bool) (*schema.Order, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	order, err := s.buildOrder(input, nil, username)
	if err != nil {
		return nil, err
	}
	order.Verified = verified
	s.orders.Put(order.UUID, &storedOrder{input: *input, order: *order, owner: username})
	return order, nil
}

func (s *Service) buildOrder(input *schema.OrderInput, prev *schema.Order, username string) (*schema.Order, error) {
	order := &schema.Order{
		OrderNumber:      input.OrderNumber,
		User:             username,
		FreightPrice:     input.FreightPrice,
		CurrencyType:     input.CurrencyType,
		SellerCountry:    input.SellerCountry,
		Date:             input.Date,
		ExpireDate:       input.ExpireDate,
		TermsOfDelivery:  input.TermsOfDelivery,
		TermsOfPayment:   input.TermsOfPayment,
		PartialShipment:  input.PartialShipment,
		MeansOfTransport: input.MeansOfTransport,
		CountryOfOrigin:  input.CountryOfOrigin,
		Standard:         input.Standard,
	}
	if prev != nil {
		order.ID, order.UUID, order.CreatedAt, order.Verified = prev.ID, prev.UUID, prev.CreatedAt, prev.Verified
	} else {
		now := time.Now().UTC()
		order.ID, order.UUID, order.CreatedAt = int(s.nextOrderID.Add(1)), uuid.New(), &now
	}
	for _, item := range input.Goods {
		code, ok := s.hsCodes.Get(item.HSCodeID)
		if !ok {
			return nil, schema.NewFieldError("goods", "Invalid pk \""+strconv.Itoa(item.HSCodeID)+"\" - object does not exist.")
		}
		order.Goods = append(order.Goods, schema.Good{
			UUID:        uuid.New(),
			Description: item.Description,
			HSCode:      code.Code,
			Quantity:    item.Quantity,
			Origin:      item.Origin,
			UnitPrice:   item.UnitPrice,
			Unit:        item.Unit,
			NetWeight:   item.NetWeight,
			GrossWeight: item.GrossWeight,
		})
	}
	order.Recalculate()
	return order, nil
}

// duplicateNumber returns true if username already owns another order with the same number
func (s *Service) duplicateNumber(username, number string, except uuid.UUID) bool {
	ret := false
	s.orders.Range(func(id uuid.UUID, stored *storedOrder) bool {
		if id != except && stored.owner == username && stored.order.OrderNumber == number {
			ret = true
			return false
		}
		return true
	})
	return ret
}

func isAdmin(u *user) bool {
	return u != nil && (u.Role == schema.RoleAdmin || u.Role == schema.RoleStaff)
}

// lookupOrder resolves the uuid URL param into an order visible to the current user
func (s *Service) lookupOrder(w http.ResponseWriter, r *http.Request) (*storedOrder, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return nil, false
	}
	stored, ok := s.orders.Get(id)
	if u := currentUser(r.Context()); !ok || (!isAdmin(u) && stored.owner != u.Username) {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return nil, false
	}
	return stored, true
}

func writeValidationError(w http.ResponseWriter, err error) {
	if fieldErr, ok := err.(*schema.FieldError); ok {
		writeFieldError(w, fieldErr.Field, fieldErr.Message)
		return
	}
	writeDetail(w, http.StatusBadRequest, err.Error())
}

func sortOrders(orders []schema.Order, less func(a, b *schema.Order) bool) {
	sort.SliceStable(orders, func(i, j int) bool {
		return less(&orders[i], &orders[j])
	})
}

func (s *Service) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())
	orders := []schema.Order{}
	for _, stored := range s.orders.Values() {
		if isAdmin(u) || stored.owner == u.Username {
			orders = append(orders, stored.order)
		}
	}
	sortOrders(orders, func(a, b *schema.Order) bool { return a.ID > b.ID })
	writeJSON(w, http.StatusOK, orders)
}

func (s *Service) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var input schema.OrderInput
	if err := decodeBody(r, &input); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := input.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	u := currentUser(r.Context())
	s.writes.Lock()
	defer s.writes.Unlock()
	if s.duplicateNumber(u.Username, input.OrderNumber, uuid.Nil) {
		writeFieldError(w, "order_number", "This order number is already registered for you.")
		return
	}
	order, err := s.buildOrder(&input, nil, u.Username)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	s.orders.Put(order.UUID, &storedOrder{input: input, order: *order, owner: u.Username})
	writeJSON(w, http.StatusCreated, order)
}

func (s *Service) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	if stored, ok := s.lookupOrder(w, r); ok {
		writeJSON(w, http.StatusOK, stored.order)
	}
}

// updateOrderHandler handles PUT, and PATCH when partial is set
func (s *Service) updateOrderHandler(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writes.Lock()
		defer s.writes.Unlock()
		stored, ok := s.lookupOrder(w, r)
		if !ok {
			return
		}
		input := schema.OrderInput{}
		if partial {
			input = stored.input
			input.Goods = append([]schema.GoodInput(nil), stored.input.Goods...)
		}
		if err := decodeBody(r, &input); err != nil {
			writeDetail(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if err := input.Validate(); err != nil {
			writeValidationError(w, err)
			return
		}
		if s.duplicateNumber(stored.owner, input.OrderNumber, stored.order.UUID) {
			writeFieldError(w, "order_number", "This order number is already registered for you.")
			return
		}
		order, err := s.buildOrder(&input, &stored.order, stored.owner)
		if err != nil {
			writeValidationError(w, err)
			return
		}
		s.orders.Put(order.UUID, &storedOrder{input: input, order: *order, owner: stored.owner})
		writeJSON(w, http.StatusOK, order)
	}
}

func (s *Service) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	stored, ok := s.lookupOrder(w, r)
	if !ok {
		return
	}
	s.orders.Delete(stored.order.UUID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) verifyOrderHandler(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(currentUser(r.Context())) {
		writeDetail(w, http.StatusForbidden, "Only admins can change verification state.")
		return
	}
	var req map[string]interface{}
	if err := decodeBody(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return
	}
	verified, ok := req["verified"].(bool)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Field 'verified' must be boolean.")
		return
	}
	s.writes.Lock()
	defer s.writes.Unlock()
	stored, ok := s.lookupOrder(w, r)
	if !ok {
		return
	}
	updated := *stored
	updated.order.Verified = verified
	s.orders.Put(updated.order.UUID, &updated)
	writeJSON(w, http.StatusOK, updated.order)
}

func (s *Service) marketplaceListHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	orders := []schema.Order{}
	for _, stored := range s.orders.Values() {
		if stored.order.Verified && matchesMarketplace(&stored.order, query) {
			orders = append(orders, publicOrder(&stored.order))
		}
	}
	sortOrders(orders, func(a, b *schema.Order) bool { return a.Date > b.Date })
	writeJSON(w, http.StatusOK, orders)
}

func (s *Service) marketplaceGetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	stored, ok := s.orders.Get(id)
	if !ok || !stored.order.Verified {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, publicOrder(&stored.order))
}

// publicOrder hides owner identity from anonymous listing
func publicOrder(order *schema.Order) schema.Order {
	ret := *order
	ret.User = ""
	ret.Verified = false
	return ret
}

func containsFold(value, term string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}

func matchesMarketplace(order *schema.Order, query map[string][]string) bool {
	get := func(key string) string {
		if values := query[key]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}
	if terms := schema.SearchTerms(get("q")); len(terms) > 0 && !matchesAnyTerm(order, terms) {
		return false
	}
	if raw := get("total_value_min"); raw != "" {
		if limit, err := strconv.ParseFloat(raw, 64); err == nil && order.TotalValue.Float64() < limit {
			return false
		}
	}
	if raw := get("total_value_max"); raw != "" {
		if limit, err := strconv.ParseFloat(raw, 64); err == nil && order.TotalValue.Float64() > limit {
			return false
		}
	}
	textFields := map[string]string{
		"seller_country":     order.SellerCountry,
		"currency_type":      order.CurrencyType,
		"terms_of_delivery":  order.TermsOfDelivery,
		"terms_of_payment":   order.TermsOfPayment,
		"means_of_transport": order.MeansOfTransport,
		"standard":           order.Standard,
		"country_of_origin":  order.CountryOfOrigin,
	}
	for key, value := range textFields {
		if term := get(key); term != "" && !containsFold(value, term) {
			return false
		}
	}
	if raw := get("partial_shipment"); raw != "" {
		if flag, err := strconv.ParseBool(raw); err == nil && flag != order.PartialShipment {
			return false
		}
	}
	if raw := get("hs_code"); raw != "" {
		if !hasAnyCode(order, strings.Split(raw, ",")) {
			return false
		}
	}
	return true
}

func matchesAnyTerm(order *schema.Order, terms []string) bool {
	for _, term := range terms {
		if containsFold(order.OrderNumber, term) {
			return true
		}
		for _, good := range order.Goods {
			if containsFold(good.Description, term) || containsFold(good.HSCode, term) {
				return true
			}
		}
	}
	return false
}

func hasAnyCode(order *schema.Order, codes []string) bool {
	for _, code := range codes {
		if code = strings.TrimSpace(code); code == "" {
			continue
		}
		for _, good := range order.Goods {
			if good.HSCode == code {
				return true
			}
		}
	}
	return false
}
