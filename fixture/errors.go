package fixture

import "errors"

// ErrRootCollision is returned by Fork when the new root is the root of the
// forked fixture, lies below it or contains it.
var ErrRootCollision = errors.New("fork root collides with fixture root")
