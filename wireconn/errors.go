package wireconn

import "errors"

// ErrUnexpectedMessage is traced (via halftwo/mangos/xerr) whenever the
// handshake reads something other than the version/verack message it was
// waiting for.
var ErrUnexpectedMessage = errors.New("unexpected message during handshake")
