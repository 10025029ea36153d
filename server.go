package ldapderef

import (
	"context"
	"errors"
	"fmt"

	ldap "github.com/go-ldap/ldap/v3"
	message "github.com/lor00x/goldap/message"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of concurrent Resolve calls a
// Dereferencer created by NewDereferencer makes.
const DefaultConcurrency = 4

// ParseRequestControl looks for the dereference control among the controls
// of a search request, as decoded by goldap. found is false when the
// control is absent. A control given twice, without value, with a value
// that does not decode or that breaks Specs.Validate is rejected with
// result code ldap.LDAPResultProtocolError, or
// ldap.LDAPResultUnavailableCriticalExtension when it was critical.
func ParseRequestControl(controls []message.Control) (specs Specs, found bool, err error) {
	var control *message.Control
	for i := range controls {
		c := &controls[i]
		if string(c.ControlType()) != ControlTypeDereference {
			continue
		}
		if control != nil {
			return nil, true, requestControlError(bool(control.Criticality()),
				errors.New("the dereference control cannot be specified more than once"))
		}
		control = c
	}
	if control == nil {
		return nil, false, nil
	}

	critical := bool(control.Criticality())
	value := control.ControlValue()
	if value == nil || len(*value) == 0 {
		return nil, true, requestControlError(critical, errors.New("the dereference control must have a non-empty value"))
	}
	specs, err = DecodeRequestValue([]byte(*value))
	if err != nil {
		return nil, true, requestControlError(critical, err)
	}
	if err = specs.Validate(); err != nil {
		return nil, true, requestControlError(critical, err)
	}
	return specs, true, nil
}

func requestControlError(critical bool, err error) error {
	var code uint16 = ldap.LDAPResultProtocolError
	if critical {
		code = ldap.LDAPResultUnavailableCriticalExtension
	}
	return ldap.NewError(code, fmt.Errorf("deref: %w", err))
}

// NewResponseControl returns the response control carrying results, to be
// attached to a SearchResultEntry.
func NewResponseControl(results []DerefRes) (message.Control, error) {
	value, err := EncodeResultValue(results)
	if err != nil {
		return message.Control{}, err
	}
	v := string(value)
	return message.NewControl(ControlTypeDereference, false, &v), nil
}

// Resolver reads the entry named dn with the requested attributes. It
// returns nil, nil when there is no such entry.
type Resolver interface {
	Resolve(ctx context.Context, dn string, attributes []string) (*ldap.Entry, error)
}

// The ResolverFunc type is an adapter to allow the use of ordinary functions
// as Resolver.
type ResolverFunc func(ctx context.Context, dn string, attributes []string) (*ldap.Entry, error)

// Resolve calls f(ctx, dn, attributes).
func (f ResolverFunc) Resolve(ctx context.Context, dn string, attributes []string) (*ldap.Entry, error) {
	return f(ctx, dn, attributes)
}

// Dereferencer computes the dereference results of search result entries.
type Dereferencer struct {
	Resolver Resolver
	// Concurrency bounds concurrent Resolve calls; values below 1 mean 1.
	Concurrency int
}

// NewDereferencer returns a Dereferencer using r with DefaultConcurrency.
func NewDereferencer(r Resolver) *Dereferencer {
	return &Dereferencer{Resolver: r, Concurrency: DefaultConcurrency}
}

type derefJob struct {
	spec Spec
	dn   string
}

// Dereference follows every value of every spec's derefAttr in entry and
// returns one DerefRes per entry found, in spec then value order. DNs that
// cannot be read are logged and skipped. Only requested attributes having
// values are returned, and AttrVals stays nil when there are none. A nil
// entry has no result. The call fails only when ctx is done.
func (d *Dereferencer) Dereference(ctx context.Context, entry *ldap.Entry, specs Specs) ([]DerefRes, error) {
	if entry == nil {
		return nil, nil
	}
	var jobs []derefJob
	for _, spec := range specs {
		for _, dn := range entry.GetEqualFoldAttributeValues(spec.DerefAttr) {
			jobs = append(jobs, derefJob{spec: spec, dn: dn})
		}
	}

	limit := d.Concurrency
	if limit < 1 {
		limit = 1
	}
	slots := make([]*DerefRes, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range jobs {
		i := i
		g.Go(func() error {
			res, err := d.dereference(gctx, jobs[i])
			slots[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]DerefRes, 0, len(slots))
	for _, res := range slots {
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

func (d *Dereferencer) dereference(ctx context.Context, job derefJob) (*DerefRes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := d.Resolver.Resolve(ctx, job.dn, job.spec.Attributes)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		Logger.Printf("deref: could not read entry with DN [%s]: %s", job.dn, err)
		return nil, nil
	}
	if target == nil {
		Logger.Printf("deref: no entries matching [%s]", job.dn)
		return nil, nil
	}

	res := &DerefRes{DerefAttr: job.spec.DerefAttr, DerefVal: job.dn}
	for _, name := range job.spec.Attributes {
		vals := target.GetEqualFoldRawAttributeValues(name)
		if len(vals) == 0 {
			continue
		}
		res.AttrVals = append(res.AttrVals, PartialAttribute{Type: name, Vals: vals})
	}
	return res, nil
}

// ResponseControl dereferences entry and returns the response control to
// attach to it. The control is returned even when there is no result.
func (d *Dereferencer) ResponseControl(ctx context.Context, entry *ldap.Entry, specs Specs) (message.Control, error) {
	results, err := d.Dereference(ctx, entry, specs)
	if err != nil {
		return message.Control{}, err
	}
	return NewResponseControl(results)
}
