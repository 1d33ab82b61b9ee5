package domain

import "testing"

func TestSignedDelta(t *testing.T) {
	tests := []struct {
		name      string
		accType   AccountType
		direction Direction
		amount    int64
		want      int64
	}{
		{name: "debit grows an asset", accType: TypeAssets, direction: Debit, amount: 100, want: 100},
		{name: "credit shrinks an asset", accType: TypeAssets, direction: Credit, amount: 100, want: -100},
		{name: "debit grows an expense", accType: TypeExpenses, direction: Debit, amount: 100, want: 100},
		{name: "credit shrinks an expense", accType: TypeExpenses, direction: Credit, amount: 100, want: -100},
		{name: "credit grows a liability", accType: TypeLiabilities, direction: Credit, amount: 100, want: 100},
		{name: "debit shrinks a liability", accType: TypeLiabilities, direction: Debit, amount: 100, want: -100},
		{name: "credit grows equity", accType: TypeEquity, direction: Credit, amount: 100, want: 100},
		{name: "credit grows income", accType: TypeIncome, direction: Credit, amount: 100, want: 100},
		{name: "debit shrinks income", accType: TypeIncome, direction: Debit, amount: 100, want: -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SignedDelta(tt.accType, tt.direction, tt.amount)
			if got != tt.want {
				t.Errorf("SignedDelta(%s, %s, %d) = %d, want %d",
					tt.accType, tt.direction, tt.amount, got, tt.want)
			}
		})
	}
}

func TestNormalBalance(t *testing.T) {
	tests := []struct {
		accType AccountType
		want    Direction
	}{
		{TypeAssets, Debit},
		{TypeExpenses, Debit},
		{TypeLiabilities, Credit},
		{TypeEquity, Credit},
		{TypeIncome, Credit},
	}

	for _, tt := range tests {
		if got := tt.accType.NormalBalance(); got != tt.want {
			t.Errorf("%s.NormalBalance() = %s, want %s", tt.accType, got, tt.want)
		}
	}
}

func TestAccountTypeValid(t *testing.T) {
	for _, accType := range AccountTypes {
		if !accType.Valid() {
			t.Errorf("%s should be valid", accType)
		}
	}

	if AccountType("crypto").Valid() {
		t.Error("unknown type should be invalid")
	}
}

func TestPathHelpers(t *testing.T) {
	if got := ChildPath("Assets", "Cash"); got != "Assets:Cash" {
		t.Errorf("ChildPath = %q", got)
	}

	if !IsDescendantPath("Assets:Cash:Wallet", "Assets:Cash") {
		t.Error("Wallet should be a descendant of Assets:Cash")
	}

	// A sibling with a shared prefix is not a descendant.
	if IsDescendantPath("Assets:Cashbox", "Assets:Cash") {
		t.Error("Cashbox is not a descendant of Assets:Cash")
	}

	if IsDescendantPath("Assets:Cash", "Assets:Cash") {
		t.Error("a path is not its own descendant")
	}

	got := RebasePath("Assets:Cash:Wallet", "Assets:Cash", "Assets:Bank")
	if got != "Assets:Bank:Wallet" {
		t.Errorf("RebasePath = %q, want Assets:Bank:Wallet", got)
	}
}

func TestAccountDepth(t *testing.T) {
	root := &Account{Path: "Assets"}
	if root.Depth() != 0 {
		t.Errorf("root depth = %d, want 0", root.Depth())
	}
	if !root.IsRoot() {
		t.Error("account without parent should be a root")
	}

	leaf := &Account{Path: "Assets:Cash:Wallet", ParentID: "acc-1"}
	if leaf.Depth() != 2 {
		t.Errorf("leaf depth = %d, want 2", leaf.Depth())
	}
	if leaf.IsRoot() {
		t.Error("account with parent should not be a root")
	}
}
