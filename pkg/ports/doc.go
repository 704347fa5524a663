/*
Package ports defines the contracts remotedev consumes from its host.

The observer never owns a store: it decorates one. These interfaces describe
the minimal surface it needs, so any dispatch-based store can be wrapped.

# Key Interfaces

  - Store: the dispatch / getState / replaceReducer contract.
  - StateReader: the read-only view handed to transports.
  - Enhancer: a store decorator, composable at store creation.
*/
package ports
