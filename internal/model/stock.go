package model

import "fmt"

// StockStatus is the availability state stored under _stock_status.
type StockStatus uint8

const (
	InStock StockStatus = iota + 1
	OutOfStock
	OnBackorder
)

func (s StockStatus) String() string {
	switch s {
	case InStock:
		return "instock"
	case OutOfStock:
		return "outofstock"
	case OnBackorder:
		return "onbackorder"
	}
	return fmt.Sprintf("StockStatus(%d)", uint8(s))
}

func (s StockStatus) Valid() bool {
	return s >= InStock && s <= OnBackorder
}

// ParseStockStatus converts the stored representation back into a StockStatus.
func ParseStockStatus(v string) (StockStatus, error) {
	switch v {
	case "instock":
		return InStock, nil
	case "outofstock":
		return OutOfStock, nil
	case "onbackorder":
		return OnBackorder, nil
	}
	return 0, fmt.Errorf("unknown stock status %q", v)
}

func (s StockStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stock status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *StockStatus) UnmarshalText(b []byte) error {
	v, err := ParseStockStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
