package dyncodec

import (
	"reflect"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

var (
	describerType   = reflect.TypeFor[Describer]()
	wireEncoderType = reflect.TypeFor[WireEncoder]()

	charType  = reflect.TypeFor[Char]()
	strType   = reflect.TypeFor[Str]()
	bytesType = reflect.TypeFor[Bytes]()
	unitType  = reflect.TypeFor[Unit]()
	i128Type  = reflect.TypeFor[I128]()
	u128Type  = reflect.TypeFor[U128]()
)

// structInfo is the reflected field layout of a struct type.
type structInfo struct {
	name   string
	names  []string // wire names in declaration order
	fields []int    // struct field index of each wire name
}

// structCache avoids re-walking struct fields with reflection on every call.
var structCache = xsync.NewMap[reflect.Type, *structInfo]()

// structInfoFor lists the exported fields of t in declaration order. A
// `wire:"name"` tag renames a field and `wire:"-"` skips it.
func structInfoFor(t reflect.Type) *structInfo {
	if info, ok := structCache.Load(t); ok {
		return info
	}
	info := &structInfo{name: t.Name()}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("wire"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		info.names = append(info.names, name)
		info.fields = append(info.fields, i)
	}
	structCache.Store(t, info)
	return info
}

// describeValue runs the description logic of v's type against d, storing
// whatever d hands back into v. v must be settable.
func describeValue(d Decoder, v reflect.Value) error {
	t := v.Type()
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(describerType) {
		return v.Addr().Interface().(Describer).DescribeWire(d)
	}

	switch t {
	case charType:
		c, err := d.DecodeChar()
		if err != nil {
			return err
		}
		v.SetInt(int64(c))
		return nil
	case strType:
		s, err := d.DecodeStr()
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	case bytesType:
		b, err := d.DecodeBytes()
		if err != nil {
			return err
		}
		v.SetBytes(b)
		return nil
	case unitType:
		return d.DecodeUnit()
	case i128Type:
		x, err := d.DecodeInt128()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(x))
		return nil
	case u128Type:
		x, err := d.DecodeUint128()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(x))
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := d.DecodeBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int8:
		n, err := d.DecodeInt8()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Int16:
		n, err := d.DecodeInt16()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Int32:
		n, err := d.DecodeInt32()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Int64, reflect.Int:
		n, err := d.DecodeInt64()
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint8:
		n, err := d.DecodeUint8()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint16:
		n, err := d.DecodeUint16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint32:
		n, err := d.DecodeUint32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(n))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		n, err := d.DecodeUint64()
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32:
		f, err := d.DecodeFloat32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(f))
	case reflect.Float64:
		f, err := d.DecodeFloat64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.String:
		s, err := d.DecodeString()
		if err != nil {
			return err
		}
		v.SetString(s)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !hasCustomShape(t.Elem()) {
			b, err := d.DecodeByteBuf()
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		}
		v.SetZero()
		return d.DecodeSeq(func(ed Decoder) error {
			e := reflect.New(t.Elem()).Elem()
			if err := describeValue(ed, e); err != nil {
				return err
			}
			v.Set(reflect.Append(v, e))
			return nil
		})
	case reflect.Array:
		return d.DecodeTuple(t.Len(), func(i int, ed Decoder) error {
			return describeValue(ed, v.Index(i))
		})
	case reflect.Map:
		m := reflect.MakeMap(t)
		err := d.DecodeMap(func(kd, vd Decoder) error {
			key := reflect.New(t.Key()).Elem()
			if err := describeValue(kd, key); err != nil {
				return err
			}
			elem := reflect.New(t.Elem()).Elem()
			if err := describeValue(vd, elem); err != nil {
				return err
			}
			m.SetMapIndex(key, elem)
			return nil
		})
		if err != nil {
			return err
		}
		v.Set(m)
	case reflect.Pointer:
		v.SetZero()
		return d.DecodeOption(func(ed Decoder) error {
			p := reflect.New(t.Elem())
			if err := describeValue(ed, p.Elem()); err != nil {
				return err
			}
			v.Set(p)
			return nil
		})
	case reflect.Struct:
		info := structInfoFor(t)
		return d.DecodeStruct(info.name, info.names, func(i int, fd Decoder) error {
			return describeValue(fd, v.Field(info.fields[i]))
		})
	default:
		// Interfaces, channels, funcs and complex numbers have no fixed shape.
		x, err := d.DecodeAny()
		if err != nil {
			return err
		}
		if x != nil {
			if rv := reflect.ValueOf(x); rv.Type().AssignableTo(t) {
				v.Set(rv)
			}
		}
	}
	return nil
}

// hasCustomShape reports whether t is described by something other than
// its reflect.Kind.
func hasCustomShape(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(describerType)
}
