/*
Package session implements the optimization session: the reset/step state
machine that replays a growing transform sequence through the external tool.

Each run rebuilds the design from scratch because the tool keeps no state
between invocations. A run produces a metrics snapshot, an observation of the
intermediate artifact, and one line of the episode log. The best-known records
live for the whole session and survive every Reset.

A failed run never advances the session: the transformation appended by Step
is removed again and the iteration counter, previous snapshot, records and log
are left as they were.
*/
package session
