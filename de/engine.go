package de

// Run pulls tokens from src and routes them into v, the visitor of the
// root place. One frame is pushed per open container; the frame states
// the loop distinguishes are: awaiting a value (cur != nil), inside a
// map awaiting a key, inside a sequence awaiting the next element, and
// container end. Failure is terminal for the whole call.
func Run(src Tokenizer, v Visitor, ctx any) error {
	type frame struct {
		seq SeqBuilder
		m   MapBuilder
	}
	var stack []frame
	cur := v

	for {
		tok, err := src.Next()
		if err != nil {
			return err
		}

		if cur == nil {
			// Between entries. Only a terminator, a key (maps) or the
			// next element (sequences) are legal here.
			if len(stack) == 0 {
				return ErrFailed
			}
			top := &stack[len(stack)-1]
			switch {
			case tok.Kind == TokenEnd:
				if top.seq != nil {
					err = top.seq.Finish(ctx)
				} else {
					err = top.m.Finish(ctx)
				}
				if err != nil {
					return err
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return nil
				}
				continue
			case tok.Kind == TokenKey:
				if top.m == nil {
					return ErrFailed
				}
				if cur, err = top.m.Key(tok.Str); err != nil {
					return err
				}
				continue
			case top.seq != nil:
				if cur, err = top.seq.Element(); err != nil {
					return err
				}
				// Fall through and dispatch tok into the new place.
			default:
				// Value token in a map position without a key.
				return ErrFailed
			}
		} else if tok.Kind == TokenEnd || tok.Kind == TokenKey {
			// A place was handed out but no value arrived for it.
			return ErrFailed
		}

		switch tok.Kind {
		case TokenNull:
			err = cur.Null(ctx)
			cur = nil
		case TokenBool:
			err = cur.Bool(tok.Bool, ctx)
			cur = nil
		case TokenInt:
			err = cur.Int(tok.Int, ctx)
			cur = nil
		case TokenUint:
			err = cur.Uint(tok.Uint, ctx)
			cur = nil
		case TokenFloat32:
			err = cur.Float32(float32(tok.Float), ctx)
			cur = nil
		case TokenFloat64:
			err = cur.Float64(tok.Float, ctx)
			cur = nil
		case TokenString:
			err = cur.String(tok.Str, ctx)
			cur = nil
		case TokenBytes:
			err = cur.Bytes(tok.Bytes, tok.Align, ctx)
			cur = nil
		case TokenBeginSeq:
			var b SeqBuilder
			if b, err = cur.Seq(ctx); err == nil {
				stack = append(stack, frame{seq: b})
				cur = nil
			}
		case TokenBeginMap:
			var b MapBuilder
			if b, err = cur.Map(ctx); err == nil {
				stack = append(stack, frame{m: b})
				cur = nil
			}
		default:
			return ErrFailed
		}
		if err != nil {
			return err
		}
		if len(stack) == 0 {
			// Scalar root.
			return nil
		}
	}
}
