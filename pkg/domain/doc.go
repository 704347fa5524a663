/*
Package domain contains the core models shared by the remotedev observer.

It defines what flows through the pipeline (Actions and the Entries recorded
from them) and what leaves it (Reports), along with the lifecycle hooks a host
uses to follow delivery. The package is free of I/O and of any dependency on
the transport or storage layers.

# Key Entities

  - Action: a discrete, named event dispatched to a store.
  - Entry: one observed unit, either a bare Action or a StateEntry pair.
  - Report: the wire payload sent to a collector.
  - StatusHooks: callbacks reporting the outcome of a delivery.
*/
package domain
