package pastemagic

import (
	"context"
	"encoding/base64"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("load.decrypt")
	sentinel.Tag("store.encrypt")
	sentinel.Tag("send.mask")
	sentinel.Tag("send.redact")
}

// Processor serializes records with field transformation declared in struct
// tags. Store seals fields for persistence, Load opens them again, and Send
// masks or redacts fields for display.
//
//	type Record struct {
//	    Name string `json:"name"`
//	    Key  string `json:"key" store.encrypt:"aes" load.decrypt:"aes" send.mask:"secret"`
//	}
//
// Processors are safe for concurrent use. Validation runs once on the first
// operation, so register encryptors before then.
type Processor[T Cloner[T]] struct {
	codec Codec

	mu         sync.RWMutex
	encryptors map[EncryptAlgo]Encryptor
	maskers    map[MaskType]Masker

	validateOnce sync.Once
	validateErr  error

	plans    *fieldPlans
	typeName string
}

// fieldPlans holds the tagged fields of a type, per action.
type fieldPlans struct {
	typeName      string
	decryptFields []fieldPlan
	encryptFields []fieldPlan
	maskFields    []fieldPlan
	redactFields  []fieldPlan
}

// fieldPlan describes how to reach and transform a single field.
type fieldPlan struct {
	index      []int  // reflect.Value.FieldByIndex access path
	name       string // dotted field name for error messages
	tagVal     string // tag value ("aes", "secret", "***")
	isBytes    bool   // []byte rather than string
	ptrIndices []int  // positions in index that dereference a pointer
}

var planCache sync.Map // reflect.Type -> *fieldPlans

func getOrBuildPlans[T any]() (*fieldPlans, error) {
	typ := reflect.TypeFor[T]()
	if cached, ok := planCache.Load(typ); ok {
		return cached.(*fieldPlans), nil
	}

	meta := sentinel.Scan[T]()
	plans := &fieldPlans{typeName: meta.TypeName}
	if err := buildPlans(plans, meta, nil, nil, ""); err != nil {
		return nil, err
	}

	actual, _ := planCache.LoadOrStore(typ, plans)
	return actual.(*fieldPlans), nil
}

func buildPlans(plans *fieldPlans, meta sentinel.Metadata, parentIndex, ptrIndices []int, prefix string) error {
	for _, field := range meta.Fields {
		index := append(append([]int{}, parentIndex...), field.Index...)
		name := field.Name
		if prefix != "" {
			name = prefix + "." + field.Name
		}

		switch {
		case field.Kind == sentinel.KindStruct:
			if nested := scanNested(field.ReflectType); nested != nil {
				if err := buildPlans(plans, *nested, index, ptrIndices, name); err != nil {
					return err
				}
			}
			continue
		case field.Kind == sentinel.KindPointer && field.ReflectType.Elem().Kind() == reflect.Struct:
			if nested := scanNested(field.ReflectType.Elem()); nested != nil {
				ptrs := append(append([]int{}, ptrIndices...), len(index)-1)
				if err := buildPlans(plans, *nested, index, ptrs, name); err != nil {
					return err
				}
			}
			continue
		}

		rt := field.ReflectType
		isString := rt.Kind() == reflect.String
		isBytes := rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8
		if !isString && !isBytes {
			continue
		}

		base := fieldPlan{index: index, name: name, isBytes: isBytes, ptrIndices: ptrIndices}

		if val, ok := field.Tags["load.decrypt"]; ok {
			if !IsValidEncryptAlgo(EncryptAlgo(val)) {
				return fmt.Errorf("%w: encryption algorithm %q for field %s", ErrInvalidTag, val, name)
			}
			plan := base
			plan.tagVal = val
			plans.decryptFields = append(plans.decryptFields, plan)
		}
		if val, ok := field.Tags["store.encrypt"]; ok {
			if !IsValidEncryptAlgo(EncryptAlgo(val)) {
				return fmt.Errorf("%w: encryption algorithm %q for field %s", ErrInvalidTag, val, name)
			}
			plan := base
			plan.tagVal = val
			plans.encryptFields = append(plans.encryptFields, plan)
		}
		if val, ok := field.Tags["send.mask"]; ok {
			if !IsValidMaskType(MaskType(val)) {
				return fmt.Errorf("%w: mask type %q for field %s", ErrInvalidTag, val, name)
			}
			plan := base
			plan.tagVal = val
			plans.maskFields = append(plans.maskFields, plan)
		}
		if val, ok := field.Tags["send.redact"]; ok {
			plan := base
			plan.tagVal = val
			plans.redactFields = append(plans.redactFields, plan)
		}
	}
	return nil
}

// scanNested builds metadata for a nested struct that sentinel has not seen.
func scanNested(rt reflect.Type) *sentinel.Metadata {
	if meta, ok := sentinel.Lookup(rt.String()); ok {
		return &meta
	}
	if rt.Kind() != reflect.Struct {
		return nil
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        actionTags(sf.Tag),
			Kind:        sentinel.KindScalar,
		}
		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		}
		meta.Fields = append(meta.Fields, fm)
	}
	return &meta
}

func actionTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	for _, name := range []string{"load.decrypt", "store.encrypt", "send.mask", "send.redact"} {
		if val, ok := tag.Lookup(name); ok {
			tags[name] = val
		}
	}
	return tags
}

// NewProcessor creates a Processor for type T with the builtin maskers.
// Encryptors are registered with SetEncryptor.
func NewProcessor[T Cloner[T]](codec Codec) (*Processor[T], error) {
	plans, err := getOrBuildPlans[T]()
	if err != nil {
		return nil, err
	}

	p := &Processor[T]{
		codec:      codec,
		encryptors: make(map[EncryptAlgo]Encryptor),
		maskers:    builtinMaskers(),
		plans:      plans,
		typeName:   plans.typeName,
	}

	emitProcessorCreated(context.Background(), codec.ContentType(), plans.typeName)
	return p, nil
}

// SetEncryptor registers an encryptor for the given algorithm.
// Returns the processor for chaining. Safe for concurrent use.
func (p *Processor[T]) SetEncryptor(algo EncryptAlgo, enc Encryptor) *Processor[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.encryptors[algo] = enc
	return p
}

// SetMasker registers a masker for the given type.
// Returns the processor for chaining. Safe for concurrent use.
func (p *Processor[T]) SetMasker(mt MaskType, m Masker) *Processor[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maskers[mt] = m
	return p
}

// Validate checks that every tagged field has its encryptor or masker.
func (p *Processor[T]) Validate() error {
	p.validateOnce.Do(func() {
		p.mu.RLock()
		defer p.mu.RUnlock()
		p.validateErr = p.validateCapabilities()
	})
	return p.validateErr
}

func (p *Processor[T]) validateCapabilities() error {
	for _, plans := range [][]fieldPlan{p.plans.decryptFields, p.plans.encryptFields} {
		for _, plan := range plans {
			if _, ok := p.encryptors[EncryptAlgo(plan.tagVal)]; !ok {
				return &ConfigError{Err: ErrMissingEncryptor, Capability: plan.tagVal, Field: plan.name}
			}
		}
	}
	for _, plan := range p.plans.maskFields {
		if _, ok := p.maskers[MaskType(plan.tagVal)]; !ok {
			return &ConfigError{Err: ErrMissingMasker, Capability: plan.tagVal, Field: plan.name}
		}
	}
	return nil
}

// Load unmarshals data and opens sealed fields.
func (p *Processor[T]) Load(ctx context.Context, data []byte) (*T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	emitBoundaryStart(ctx, SignalLoadStart, p.codec.ContentType(), p.typeName)

	var retErr error
	defer func() {
		emitLoadComplete(ctx, p.codec.ContentType(), p.typeName,
			time.Since(start), len(p.plans.decryptFields), retErr)
	}()

	var obj T
	if err := p.codec.Unmarshal(data, &obj); err != nil {
		retErr = newCodecError(ErrUnmarshal, err)
		return nil, retErr
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.transform(&obj, p.plans.decryptFields, p.decryptValue); err != nil {
		retErr = fmt.Errorf("decrypt: %w", err)
		return nil, retErr
	}
	return &obj, nil
}

// Store seals fields on a clone of obj and marshals it.
func (p *Processor[T]) Store(ctx context.Context, obj *T) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	emitBoundaryStart(ctx, SignalStoreStart, p.codec.ContentType(), p.typeName)

	var (
		retErr  error
		retData []byte
	)
	defer func() {
		emitStoreComplete(ctx, p.codec.ContentType(), p.typeName,
			len(retData), time.Since(start), len(p.plans.encryptFields), retErr)
	}()

	if obj == nil {
		retData, retErr = p.marshal(nil)
		return retData, retErr
	}

	clone := (*obj).Clone()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.transform(&clone, p.plans.encryptFields, p.encryptValue); err != nil {
		retErr = fmt.Errorf("encrypt: %w", err)
		return nil, retErr
	}

	retData, retErr = p.marshal(&clone)
	return retData, retErr
}

// Send masks and redacts fields on a clone of obj and marshals it.
func (p *Processor[T]) Send(ctx context.Context, obj *T) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	emitBoundaryStart(ctx, SignalSendStart, p.codec.ContentType(), p.typeName)

	var (
		retErr  error
		retData []byte
	)
	defer func() {
		emitSendComplete(ctx, p.codec.ContentType(), p.typeName,
			len(retData), time.Since(start),
			len(p.plans.maskFields), len(p.plans.redactFields), retErr)
	}()

	if obj == nil {
		retData, retErr = p.marshal(nil)
		return retData, retErr
	}

	clone, err := p.Mask(obj)
	if err != nil {
		retErr = err
		return nil, retErr
	}

	retData, retErr = p.marshal(clone)
	return retData, retErr
}

// Mask returns a masked and redacted clone of obj without marshaling it.
func (p *Processor[T]) Mask(obj *T) (*T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	clone := (*obj).Clone()

	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.transform(&clone, p.plans.maskFields, p.maskValue); err != nil {
		return nil, fmt.Errorf("mask: %w", err)
	}
	redact := func(plan fieldPlan, _ []byte) ([]byte, error) { return []byte(plan.tagVal), nil }
	if err := p.transform(&clone, p.plans.redactFields, redact); err != nil {
		return nil, fmt.Errorf("redact: %w", err)
	}
	return &clone, nil
}

func (p *Processor[T]) marshal(v any) ([]byte, error) {
	data, err := p.codec.Marshal(v)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

// valueFunc transforms the raw value of one field.
type valueFunc func(plan fieldPlan, value []byte) ([]byte, error)

// transform applies fn to every planned field. String fields carrying
// ciphertext hold it as standard base64; []byte fields hold it raw.
func (p *Processor[T]) transform(obj *T, plans []fieldPlan, fn valueFunc) error {
	rv := reflect.ValueOf(obj).Elem()
	for _, plan := range plans {
		field, ok := getField(rv, plan)
		if !ok || !field.CanSet() {
			continue
		}

		var value []byte
		if plan.isBytes {
			value = field.Bytes()
		} else {
			value = []byte(field.String())
		}
		if len(value) == 0 {
			continue
		}

		out, err := fn(plan, value)
		if err != nil {
			return fmt.Errorf("field %s: %w", plan.name, err)
		}

		if plan.isBytes {
			field.SetBytes(out)
		} else {
			field.SetString(string(out))
		}
	}
	return nil
}

func (p *Processor[T]) encryptValue(plan fieldPlan, value []byte) ([]byte, error) {
	ct, err := p.encryptors[EncryptAlgo(plan.tagVal)].Encrypt(value)
	if err != nil {
		return nil, err
	}
	if plan.isBytes {
		return ct, nil
	}
	return []byte(base64.StdEncoding.EncodeToString(ct)), nil
}

func (p *Processor[T]) decryptValue(plan fieldPlan, value []byte) ([]byte, error) {
	ct := value
	if !plan.isBytes {
		var err error
		if ct, err = base64.StdEncoding.DecodeString(string(value)); err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}
	}
	return p.encryptors[EncryptAlgo(plan.tagVal)].Decrypt(ct)
}

func (p *Processor[T]) maskValue(plan fieldPlan, value []byte) ([]byte, error) {
	return []byte(p.maskers[MaskType(plan.tagVal)].Mask(string(value))), nil
}

// getField navigates a field path, dereferencing pointers as needed.
func getField(rv reflect.Value, plan fieldPlan) (reflect.Value, bool) {
	if len(plan.ptrIndices) == 0 {
		return rv.FieldByIndex(plan.index), true
	}

	ptrSet := make(map[int]bool, len(plan.ptrIndices))
	for _, idx := range plan.ptrIndices {
		ptrSet[idx] = true
	}

	current := rv
	for i, idx := range plan.index {
		current = current.Field(idx)
		if ptrSet[i] {
			if current.IsNil() {
				return reflect.Value{}, false
			}
			current = current.Elem()
		}
	}
	return current, true
}
