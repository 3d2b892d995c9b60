package ledger

import (
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/cashbook/commodity"
	"github.com/robinvdvleuten/cashbook/document"
)

// OwnerKind is the kind of record that owns an invoice or job.
type OwnerKind int

const (
	OwnerNone OwnerKind = iota
	OwnerCustomer
	OwnerVendor
	OwnerJob
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerCustomer:
		return "customer"
	case OwnerVendor:
		return "vendor"
	case OwnerJob:
		return "job"
	default:
		return "none"
	}
}

func (k OwnerKind) documentType() string {
	switch k {
	case OwnerCustomer:
		return document.OwnerCustomer
	case OwnerVendor:
		return document.OwnerVendor
	case OwnerJob:
		return document.OwnerJob
	default:
		return ""
	}
}

func parseOwnerKind(s string) (OwnerKind, bool) {
	switch s {
	case document.OwnerCustomer:
		return OwnerCustomer, true
	case document.OwnerVendor:
		return OwnerVendor, true
	case document.OwnerJob:
		return OwnerJob, true
	default:
		return OwnerNone, false
	}
}

// Resolution selects how far Invoice.Owner follows the owner chain.
type Resolution int

const (
	// Direct returns the immediate owner, which may be a job.
	Direct Resolution = iota
	// ViaJob requires a job owner and returns the job's customer or vendor.
	ViaJob
)

func (r Resolution) String() string {
	if r == ViaJob {
		return "via-job"
	}
	return "direct"
}

// Owner is a reference to a customer, vendor or job. The zero Owner owns nothing.
type Owner struct {
	kind     OwnerKind
	customer *Customer
	vendor   *Vendor
	job      *Job
}

// CustomerOwner returns an Owner referencing c.
func CustomerOwner(c *Customer) Owner { return Owner{kind: OwnerCustomer, customer: c} }

// VendorOwner returns an Owner referencing v.
func VendorOwner(v *Vendor) Owner { return Owner{kind: OwnerVendor, vendor: v} }

// JobOwner returns an Owner referencing j.
func JobOwner(j *Job) Owner { return Owner{kind: OwnerJob, job: j} }

func (o Owner) Kind() OwnerKind { return o.kind }
func (o Owner) IsZero() bool { return o.kind == OwnerNone }

// Customer returns the customer if the owner is one.
func (o Owner) Customer() (*Customer, bool) { return o.customer, o.kind == OwnerCustomer }

// Vendor returns the vendor if the owner is one.
func (o Owner) Vendor() (*Vendor, bool) { return o.vendor, o.kind == OwnerVendor }

// Job returns the job if the owner is one.
func (o Owner) Job() (*Job, bool) { return o.job, o.kind == OwnerJob }

// ID returns the id of the referenced record.
func (o Owner) ID() string {
	switch {
	case o.kind == OwnerCustomer && o.customer != nil:
		return o.customer.id
	case o.kind == OwnerVendor && o.vendor != nil:
		return o.vendor.id
	case o.kind == OwnerJob && o.job != nil:
		return o.job.id
	default:
		return ""
	}
}

// Name returns the name of the referenced record.
func (o Owner) Name() string {
	switch {
	case o.kind == OwnerCustomer && o.customer != nil:
		return o.customer.name
	case o.kind == OwnerVendor && o.vendor != nil:
		return o.vendor.name
	case o.kind == OwnerJob && o.job != nil:
		return o.job.name
	default:
		return ""
	}
}

// side returns the invoicing side of the owner, following a job to its owner.
func (o Owner) side() OwnerKind {
	switch o.kind {
	case OwnerJob:
		if o.job == nil {
			return OwnerNone
		}
		return o.job.owner.side()
	default:
		return o.kind
	}
}

func (o Owner) attachedTo(b *Book) bool {
	switch o.kind {
	case OwnerCustomer:
		return o.customer != nil && o.customer.book == b
	case OwnerVendor:
		return o.vendor != nil && o.vendor.book == b
	case OwnerJob:
		return o.job != nil && o.job.book == b
	default:
		return false
	}
}

// Address of a customer or vendor.
type Address struct {
	Name  string
	Lines []string
	Phone string
	Email string
}

// party holds the fields customers and vendors share.
type party struct {
	book *Book
	kind EntityKind
	self any // the *Customer or *Vendor embedding this party

	id       string
	number   string
	name     string
	address  Address
	currency commodity.ID
	taxTable *TaxTable
	terms    *BillTerms
	notes    string
	active   bool

	taxTableRef string
	termsRef    string
}

func (p *party) ID() string { return p.id }
func (p *party) Number() string { return p.number }
func (p *party) Name() string { return p.name }
func (p *party) Notes() string { return p.notes }
func (p *party) IsActive() bool { return p.active }
func (p *party) Currency() commodity.ID { return p.currency }
func (p *party) TaxTable() *TaxTable { return p.taxTable }
func (p *party) Terms() *BillTerms { return p.terms }

// Address returns a copy of the address.
func (p *party) Address() Address {
	a := p.address
	a.Lines = slices.Clone(a.Lines)
	return a
}

// Customer is someone invoices are issued to.
type Customer struct {
	party
}

// Vendor is someone bills are received from.
type Vendor struct {
	party
}

// Job groups invoices or bills of one customer or vendor.
type Job struct {
	book *Book

	id        string
	number    string
	name      string
	reference string
	owner     Owner
	ownerRef  document.Owner // unresolved owner from the document
	active    bool
}

func (j *Job) ID() string { return j.id }
func (j *Job) Number() string { return j.number }
func (j *Job) Name() string { return j.name }
func (j *Job) Reference() string { return j.reference }
func (j *Job) IsActive() bool { return j.active }

// Owner returns the customer or vendor the job belongs to.
func (j *Job) Owner() Owner { return j.owner }
