package tls

import (
	"fmt"

	"github.com/loomfuzz/loom/agent"
	"github.com/loomfuzz/loom/algebra"
	"github.com/loomfuzz/loom/trace"
)

// ap builds a symbolic application node for a signature function.
func ap(name string, args ...*algebra.TermEval) *algebra.TermEval {
	f, ok := Signature().LookupByName(name)
	if !ok {
		panic(fmt.Sprintf("tls: seed references unknown function %q", name))
	}
	return algebra.AppEval(f.Instantiate(), args...)
}

// clientHelloRecipe composes the full client hello with the standard
// extension chain, renegotiation enabled.
func clientHelloRecipe() *algebra.TermEval {
	return ap("fn_client_hello",
		ap("fn_protocol_version12"),
		ap("fn_new_random"),
		ap("fn_new_session_id"),
		ap("fn_append_cipher_suite",
			ap("fn_new_cipher_suites"),
			ap("fn_cipher_suite12"),
		),
		ap("fn_compressions"),
		ap("fn_extensions_append",
			ap("fn_extensions_append",
				ap("fn_extensions_append",
					ap("fn_extensions_append",
						ap("fn_extensions_append",
							ap("fn_extensions_append",
								ap("fn_extensions_new"),
								ap("fn_support_group_extension",
									ap("fn_named_group_secp384r1"),
								),
							),
							ap("fn_signature_algorithm_extension"),
						),
						ap("fn_ec_point_formats_extension"),
					),
					ap("fn_signed_certificate_timestamp_extension"),
				),
				ap("fn_renegotiation_info_extension",
					ap("fn_empty_bytes"),
				),
			),
			ap("fn_signature_algorithm_cert_extension"),
		),
	)
}

// SeedClientHello is the client-attacker seed against a TLS 1.2 server: the
// client hello, the key exchange, and the encrypted finished message.
func SeedClientHello(server agent.Name) *trace.Trace {
	return &trace.Trace{
		Descriptors: []agent.Descriptor{
			agent.NewServer(server, agent.V1_2),
		},
		Steps: []trace.Step{
			trace.InputStep(server, ap("fn_record",
				clientHelloRecipe(),
				ap("fn_protocol_version12"),
			)),
			trace.InputStep(server, ap("fn_record",
				ap("fn_client_key_exchange"),
				ap("fn_protocol_version12"),
			)),
			trace.InputStep(server, ap("fn_encrypt12",
				ap("fn_finished"),
				ap("fn_seq_0"),
			)),
		},
	}
}
