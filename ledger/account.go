package ledger

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
)

// AccountType represents the type of account
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeRoot
	AccountTypeBank
	AccountTypeCash
	AccountTypeAsset
	AccountTypeCredit
	AccountTypeLiability
	AccountTypeStock
	AccountTypeMutual
	AccountTypeCurrency
	AccountTypeIncome
	AccountTypeExpense
	AccountTypeEquity
	AccountTypeReceivable
	AccountTypePayable
	AccountTypeTrading
)

var accountTypeNames = map[AccountType]string{
	AccountTypeRoot:       "ROOT",
	AccountTypeBank:       "BANK",
	AccountTypeCash:       "CASH",
	AccountTypeAsset:      "ASSET",
	AccountTypeCredit:     "CREDIT",
	AccountTypeLiability:  "LIABILITY",
	AccountTypeStock:      "STOCK",
	AccountTypeMutual:     "MUTUAL",
	AccountTypeCurrency:   "CURRENCY",
	AccountTypeIncome:     "INCOME",
	AccountTypeExpense:    "EXPENSE",
	AccountTypeEquity:     "EQUITY",
	AccountTypeReceivable: "RECEIVABLE",
	AccountTypePayable:    "PAYABLE",
	AccountTypeTrading:    "TRADING",
}

// String returns the on-disk name of the account type
func (t AccountType) String() string {
	if name, ok := accountTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseAccountType parses an on-disk account type name such as "RECEIVABLE".
func ParseAccountType(s string) (AccountType, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range accountTypeNames {
		if name == upper {
			return t, nil
		}
	}
	return AccountTypeUnknown, fmt.Errorf("unknown account type %q", s)
}

// IsReceivableOrPayable reports whether invoices can be posted to accounts of this type.
func (t AccountType) IsReceivableOrPayable() bool {
	return t == AccountTypeReceivable || t == AccountTypePayable
}

// Account is a node of the account tree.
type Account struct {
	book *Book

	id          string
	name        string
	code        string
	description string
	typ         AccountType
	commodity   commodity.ID
	placeholder bool
	hidden      bool

	parent    *Account
	parentRef string // unresolved parent id from the document
	children  []*Account
	splits    []*Split
}

// ID returns the account id, empty until the book is written.
func (a *Account) ID() string { return a.id }

// Name returns the account's own name.
func (a *Account) Name() string { return a.name }

// FullName returns the colon-separated path from the top-level account, excluding
// the root.
func (a *Account) FullName() string {
	var parts []string
	for acc := a; acc != nil && acc.typ != AccountTypeRoot; acc = acc.parent {
		parts = append(parts, acc.name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, ":")
}

func (a *Account) Code() string { return a.code }
func (a *Account) Description() string { return a.description }
func (a *Account) Type() AccountType { return a.typ }
func (a *Account) Commodity() commodity.ID { return a.commodity }
func (a *Account) IsPlaceholder() bool { return a.placeholder }
func (a *Account) IsHidden() bool { return a.hidden }
func (a *Account) IsRoot() bool { return a.typ == AccountTypeRoot }

// Parent returns the parent account, nil for roots.
func (a *Account) Parent() *Account { return a.parent }

// Children returns the direct child accounts in order.
func (a *Account) Children() []*Account { return slices.Clone(a.children) }

// Splits returns the splits posted to this account, in transaction order.
func (a *Account) Splits() []*Split { return slices.Clone(a.splits) }

// Transactions returns the distinct transactions posting to this account.
func (a *Account) Transactions() []*Transaction {
	var txns []*Transaction
	for _, s := range a.splits {
		if !slices.Contains(txns, s.txn) {
			txns = append(txns, s.txn)
		}
	}
	return txns
}

// Descendants returns every account below a, depth first.
func (a *Account) Descendants() []*Account {
	var out []*Account
	for _, child := range a.children {
		out = append(out, child)
		out = append(out, child.Descendants()...)
	}
	return out
}

// isAncestorOf reports whether a is other or one of its ancestors.
func (a *Account) isAncestorOf(other *Account) bool {
	seen := make(map[*Account]bool)
	for acc := other; acc != nil && !seen[acc]; acc = acc.parent {
		if acc == a {
			return true
		}
		seen[acc] = true
	}
	return false
}

func (a *Account) removeChild(child *Account) {
	a.children = slices.DeleteFunc(a.children, func(c *Account) bool { return c == child })
}

func (a *Account) removeSplit(s *Split) {
	a.splits = slices.DeleteFunc(a.splits, func(e *Split) bool { return e == s })
}

// SetName renames the account.
func (a *Account) SetName(name string) (Change, error) {
	if err := a.book.checkWritable(KindAccount, a.id); err != nil {
		return Change{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Change{}, NewInvalidFieldError(KindAccount, a.id, "name", "must not be empty")
	}
	a.name = name
	return a.book.touch(updated(KindAccount, a.id, "name", a)), nil
}

// SetCode sets the account code.
func (a *Account) SetCode(code string) (Change, error) {
	if err := a.book.checkWritable(KindAccount, a.id); err != nil {
		return Change{}, err
	}
	a.code = code
	return a.book.touch(updated(KindAccount, a.id, "code", a)), nil
}

// SetDescription sets the account description.
func (a *Account) SetDescription(description string) (Change, error) {
	if err := a.book.checkWritable(KindAccount, a.id); err != nil {
		return Change{}, err
	}
	a.description = description
	return a.book.touch(updated(KindAccount, a.id, "description", a)), nil
}

// SetPlaceholder marks the account as a placeholder that should not receive splits.
func (a *Account) SetPlaceholder(placeholder bool) (Change, error) {
	if err := a.book.checkWritable(KindAccount, a.id); err != nil {
		return Change{}, err
	}
	a.placeholder = placeholder
	return a.book.touch(updated(KindAccount, a.id, "placeholder", a)), nil
}

// SetHidden hides or shows the account.
func (a *Account) SetHidden(hidden bool) (Change, error) {
	if err := a.book.checkWritable(KindAccount, a.id); err != nil {
		return Change{}, err
	}
	a.hidden = hidden
	return a.book.touch(updated(KindAccount, a.id, "hidden", a)), nil
}

// SetParent moves the account under parent. Moving an account below itself or one
// of its descendants fails with an AccountCycleError.
func (a *Account) SetParent(parent *Account) (Change, error) {
	b := a.book
	if err := b.checkWritable(KindAccount, a.id); err != nil {
		return Change{}, err
	}
	if a.typ == AccountTypeRoot {
		return Change{}, NewInvalidFieldError(KindAccount, a.id, "parent", "a root account has no parent")
	}
	if parent == nil {
		return Change{}, NewInvalidFieldError(KindAccount, a.id, "parent", "must not be empty")
	}
	if parent.book != b {
		return Change{}, NewUnknownEntityError(KindAccount, parent.id)
	}
	if a.isAncestorOf(parent) {
		return Change{}, &AccountCycleError{Account: a.id, Path: []string{a.FullName(), parent.FullName()}}
	}

	// Balances of both the old and the new ancestor chain change.
	b.balances.invalidateAccount(a)
	if a.parent != nil {
		a.parent.removeChild(a)
	}
	a.parent = parent
	a.parentRef = ""
	parent.children = append(parent.children, a)
	b.balances.invalidateAccount(a)

	return b.touch(updated(KindAccount, a.id, "parent", a)), nil
}
