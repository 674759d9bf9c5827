package cart

// Service orchestrates cart operations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetCart(userID int) (Cart, error) {
	c, err := s.repo.GetByUser(userID)
	if err == ErrCartNotFound {
		// a user who never added anything still has an (empty) cart
		return Cart{UserID: userID, Lines: []CartLine{}}, nil
	}
	return c, err
}

func (s *Service) AddLine(userID, variantID, qty int) (Cart, error) {
	if variantID <= 0 {
		return Cart{}, ErrVariantNotFound
	}
	if qty <= 0 {
		return Cart{}, ErrInvalidQuantity
	}
	return s.repo.AddLine(userID, variantID, qty)
}

func (s *Service) UpdateLine(userID, cartLineID, qty int) (Cart, error) {
	if qty <= 0 {
		// dropping to zero means removing the line
		return s.repo.RemoveLine(userID, cartLineID)
	}
	return s.repo.UpdateLine(userID, cartLineID, qty)
}

func (s *Service) RemoveLine(userID, cartLineID int) (Cart, error) {
	return s.repo.RemoveLine(userID, cartLineID)
}
